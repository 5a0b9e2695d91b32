package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogurasousui/employee-management-api/internal/core/employee"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

const serializationErrorPrefix = "Error serializing snapshots: "

// Recorder は従業員の変更1件につき監査レコードを1件生成し永続化します。
// スナップショットの直列化に失敗しても監査レコード自体は必ず書き込みを
// 試みます。ストアへの書き込み失敗の扱いは FailOpen に従います。
type Recorder struct {
	repo     Repository
	codec    SnapshotCodec
	clock    Clock
	logger   *slog.Logger
	failOpen bool
}

// RecorderOption は Recorder の生成オプションです。
type RecorderOption func(*Recorder)

// WithFailOpen はストア書き込み失敗時に警告ログのみを残し、呼び出し元の
// 変更操作を成功扱いとする方針を設定します。既定では失敗は伝播します。
func WithFailOpen(failOpen bool) RecorderOption {
	return func(r *Recorder) {
		r.failOpen = failOpen
	}
}

// WithClock は時刻源を差し替えます。
func WithClock(clock Clock) RecorderOption {
	return func(r *Recorder) {
		r.clock = clock
	}
}

// NewRecorder は Recorder を生成します。
func NewRecorder(repo Repository, codec SnapshotCodec, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	if codec == nil {
		codec = JSONSnapshotCodec{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{repo: repo, codec: codec, clock: realClock{}, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordCreate は従業員作成の監査を記録します。before は存在しません。
func (r *Recorder) RecordCreate(ctx context.Context, created *employee.Employee, actor string) error {
	return r.record(ctx, nil, created, ActionCreate, actor)
}

// RecordUpdate は従業員更新の監査を記録します。
func (r *Recorder) RecordUpdate(ctx context.Context, before, after *employee.Employee, actor string) error {
	return r.record(ctx, before, after, ActionUpdate, actor)
}

// RecordDelete は論理削除の監査を記録します。削除前のスナップショットを
// before/after 両方に採用し、削除された時点の状態を残します。
func (r *Recorder) RecordDelete(ctx context.Context, deleted *employee.Employee, actor string) error {
	return r.record(ctx, deleted, deleted, ActionDelete, actor)
}

// RecordRestore は復元の監査を記録します。
func (r *Recorder) RecordRestore(ctx context.Context, before, after *employee.Employee, actor string) error {
	return r.record(ctx, before, after, ActionRestore, actor)
}

func (r *Recorder) record(ctx context.Context, before, after *employee.Employee, action Action, actor string) error {
	entry := &Entry{
		EmployeeID:  employeeIDOf(before, after),
		Action:      action,
		PerformedBy: actor,
		PerformedAt: r.clock.Now(),
		Description: describe(action, before, after),
	}

	beforeSnapshot, afterSnapshot, err := r.encodeSnapshots(before, after)
	if err != nil {
		// 直列化の失敗で監査を欠落させない。スナップショットなしの
		// 退行レコードとして書き込む。
		r.logger.ErrorContext(ctx, "failed to serialize employee snapshot for audit",
			slog.String("action", string(action)),
			slog.Int64("employee_id", entry.EmployeeID),
			slog.String("error", err.Error()),
		)
		entry.Description = serializationErrorPrefix + entry.Description
	} else {
		entry.BeforeSnapshot = beforeSnapshot
		entry.AfterSnapshot = afterSnapshot
	}

	if _, err := r.repo.Create(ctx, entry); err != nil {
		if r.failOpen {
			r.logger.WarnContext(ctx, "failed to persist audit entry",
				slog.String("action", string(action)),
				slog.Int64("employee_id", entry.EmployeeID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		return fmt.Errorf("audit: record %s: %w", action, err)
	}

	r.logger.DebugContext(ctx, "audit entry recorded",
		slog.String("action", string(action)),
		slog.Int64("employee_id", entry.EmployeeID),
		slog.String("performed_by", actor),
	)
	return nil
}

// History は従業員の監査履歴を実施時刻の降順で返します。
func (r *Recorder) History(ctx context.Context, employeeID int64) ([]*Entry, error) {
	if employeeID <= 0 {
		return nil, fmt.Errorf("employee id %d: %w", employeeID, employee.ErrInvalidID)
	}
	return r.repo.ListByEmployeeID(ctx, employeeID)
}

func (r *Recorder) encodeSnapshots(before, after *employee.Employee) (*string, *string, error) {
	var beforeSnapshot, afterSnapshot *string

	if before != nil {
		encoded, err := r.codec.Encode(before)
		if err != nil {
			return nil, nil, err
		}
		beforeSnapshot = &encoded
	}

	if after != nil {
		encoded, err := r.codec.Encode(after)
		if err != nil {
			return nil, nil, err
		}
		afterSnapshot = &encoded
	}

	return beforeSnapshot, afterSnapshot, nil
}

func employeeIDOf(before, after *employee.Employee) int64 {
	if after != nil {
		return after.ID
	}
	if before != nil {
		return before.ID
	}
	return 0
}

func describe(action Action, before, after *employee.Employee) string {
	subject := after
	if subject == nil {
		subject = before
	}
	if subject == nil {
		return "Unknown audit action"
	}

	name := subject.FirstName + " " + subject.LastName

	switch action {
	case ActionCreate:
		return "Employee created: " + name
	case ActionUpdate:
		return "Employee updated: " + name
	case ActionDelete:
		return "Employee soft deleted: " + name
	case ActionRestore:
		return "Employee restored: " + name
	default:
		return "Unknown audit action"
	}
}
