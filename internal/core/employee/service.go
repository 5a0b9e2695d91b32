package employee

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// AuditRecorder は変更操作の成功後に監査記録を残します。
// Delete の監査は変更前スナップショットを before/after 両方として受け取ります。
type AuditRecorder interface {
	RecordCreate(ctx context.Context, created *Employee, actor string) error
	RecordUpdate(ctx context.Context, before, after *Employee, actor string) error
	RecordDelete(ctx context.Context, deleted *Employee, actor string) error
	RecordRestore(ctx context.Context, before, after *Employee, actor string) error
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) RecordCreate(context.Context, *Employee, string) error { return nil }
func (noopAuditRecorder) RecordUpdate(context.Context, *Employee, *Employee, string) error {
	return nil
}
func (noopAuditRecorder) RecordDelete(context.Context, *Employee, string) error { return nil }
func (noopAuditRecorder) RecordRestore(context.Context, *Employee, *Employee, string) error {
	return nil
}

// ActorResolver は変更操作に帰属させる実行者を解決します。
// 認証基盤が未統合のため、現状は固定値を返す実装のみが存在します。
type ActorResolver interface {
	CurrentActor(ctx context.Context) string
}

// ActorResolverFunc は関数を ActorResolver として扱うためのアダプタです。
type ActorResolverFunc func(ctx context.Context) string

// CurrentActor は自身を呼び出します。
func (f ActorResolverFunc) CurrentActor(ctx context.Context) string {
	return f(ctx)
}

// SystemActor は認証統合前の既定実行者です。
const SystemActor = "system"

type systemActorResolver struct{}

func (systemActorResolver) CurrentActor(context.Context) string {
	return SystemActor
}

const (
	maxNameLength       = 50
	defaultListPageSize = 20
	maxListPageSize     = 200
)

// Policy は観測挙動が確定していない操作の方針を切り替えます。
type Policy struct {
	// StrictDelete が true の場合、削除済み従業員の再削除を拒否します。
	// false の場合は削除メタデータを再付与し、監査も再記録します。
	StrictDelete bool
}

// Service は従業員ライフサイクルに関するユースケースをまとめます。
type Service struct {
	repo    Repository
	auditor AuditRecorder
	clock   Clock
	tx      TransactionManager
	actor   ActorResolver
	policy  Policy
}

// UseCase は従業員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, id int64) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	UpdateEmployee(ctx context.Context, id int64, in UpdateEmployeeInput) (*Employee, error)
	PartialUpdateEmployee(ctx context.Context, id int64, in UpdateEmployeeInput) (*Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
	RestoreEmployee(ctx context.Context, id int64) (*Employee, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, auditor AuditRecorder, clock Clock, tx TransactionManager, actor ActorResolver, policy Policy) *Service {
	if auditor == nil {
		auditor = noopAuditRecorder{}
	}
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if actor == nil {
		actor = systemActorResolver{}
	}
	return &Service{repo: repo, auditor: auditor, clock: clock, tx: tx, actor: actor, policy: policy}
}

// CreateEmployeeInput は従業員作成時の入力です。
type CreateEmployeeInput struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       *string
	DateOfBirth *time.Time
	HireDate    time.Time
	JobTitle    string
	Department  string
	Salary      float64
}

// UpdateEmployeeInput は従業員更新時の入力です。nil のフィールドは変更されません。
type UpdateEmployeeInput struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Phone       *string
	DateOfBirth *time.Time
	HireDate    *time.Time
	JobTitle    *string
	Department  *string
	Salary      *float64
	Status      *Status
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	Department      *string
	Status          *Status
	Search          string
	IncludeInactive bool
	Page            int
	PageSize        int
	Unpaged         bool
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Employees  []*Employee
	TotalCount int64
	Page       int
	PageSize   int
}

// CreateEmployee は新しい従業員を作成します。メールアドレスが既存従業員
// (削除済みを含む) と重複する場合は ErrEmailAlreadyExists を返します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	firstName, err := normalizeName(in.FirstName, ErrInvalidFirstName)
	if err != nil {
		return nil, err
	}

	lastName, err := normalizeName(in.LastName, ErrInvalidLastName)
	if err != nil {
		return nil, err
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	jobTitle, err := normalizeRequired(in.JobTitle, ErrInvalidJobTitle)
	if err != nil {
		return nil, err
	}

	department, err := normalizeRequired(in.Department, ErrInvalidDepartment)
	if err != nil {
		return nil, err
	}

	if in.HireDate.IsZero() {
		return nil, ErrInvalidHireDate
	}

	if in.Salary < 0 {
		return nil, ErrInvalidSalary
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmailNotExists(txCtx, email, 0); err != nil {
			return err
		}

		now := s.clock.Now()
		emp := &Employee{
			FirstName:   firstName,
			LastName:    lastName,
			Email:       email,
			Phone:       cloneString(in.Phone),
			DateOfBirth: normalizeDate(in.DateOfBirth),
			HireDate:    truncateToDate(in.HireDate),
			JobTitle:    jobTitle,
			Department:  department,
			Salary:      in.Salary,
			Status:      StatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.auditor.RecordCreate(ctx, created, s.actor.CurrentActor(ctx)); err != nil {
		return nil, err
	}

	return created, nil
}

// GetEmployee は ID で従業員を取得します。論理削除済みのレコードも取得対象です。
func (s *Service) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	if id <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListEmployees は従業員の一覧を取得します。IncludeInactive が false の場合、
// 論理削除済みレコードはステータスフィルタに関係なく除外されます。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	if in.Page < 0 {
		return nil, ErrInvalidPage
	}

	pageSize, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	if in.Status != nil && !isValidStatus(*in.Status) {
		return nil, ErrInvalidStatus
	}

	filter := ListFilter{
		Department:      in.Department,
		Status:          in.Status,
		Search:          strings.TrimSpace(in.Search),
		IncludeInactive: in.IncludeInactive,
		Limit:           pageSize,
		Offset:          in.Page * pageSize,
		Unpaged:         in.Unpaged,
	}

	var (
		employees []*Employee
		total     int64
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, count, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		employees = result
		total = count
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListEmployeesResult{
		Employees:  employees,
		TotalCount: total,
		Page:       in.Page,
		PageSize:   pageSize,
	}, nil
}

// UpdateEmployee は従業員情報を全体更新します。リクエストに含まれる
// フィールドのみ上書きされます。
func (s *Service) UpdateEmployee(ctx context.Context, id int64, in UpdateEmployeeInput) (*Employee, error) {
	return s.update(ctx, id, in)
}

// PartialUpdateEmployee は従業員情報を部分更新します。マージの規約は
// UpdateEmployee と同一で、境界層の HTTP メソッドのみが異なります。
func (s *Service) PartialUpdateEmployee(ctx context.Context, id int64, in UpdateEmployeeInput) (*Employee, error) {
	return s.update(ctx, id, in)
}

func (s *Service) update(ctx context.Context, id int64, in UpdateEmployeeInput) (*Employee, error) {
	if id <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var (
		before  *Employee
		updated *Employee
	)

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		before = existing.Clone()

		if err := s.applyUpdate(txCtx, existing, in); err != nil {
			return err
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.auditor.RecordUpdate(ctx, before, updated, s.actor.CurrentActor(ctx)); err != nil {
		return nil, err
	}

	return updated, nil
}

// applyUpdate は入力に含まれるフィールドのみを明示的に上書きします。
func (s *Service) applyUpdate(ctx context.Context, existing *Employee, in UpdateEmployeeInput) error {
	if in.FirstName != nil {
		firstName, err := normalizeName(*in.FirstName, ErrInvalidFirstName)
		if err != nil {
			return err
		}
		existing.FirstName = firstName
	}

	if in.LastName != nil {
		lastName, err := normalizeName(*in.LastName, ErrInvalidLastName)
		if err != nil {
			return err
		}
		existing.LastName = lastName
	}

	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return err
		}
		if !strings.EqualFold(email, existing.Email) {
			if err := s.ensureEmailNotExists(ctx, email, existing.ID); err != nil {
				return err
			}
		}
		existing.Email = email
	}

	if in.Phone != nil {
		existing.Phone = cloneString(in.Phone)
	}

	if in.DateOfBirth != nil {
		existing.DateOfBirth = normalizeDate(in.DateOfBirth)
	}

	if in.HireDate != nil {
		if in.HireDate.IsZero() {
			return ErrInvalidHireDate
		}
		existing.HireDate = truncateToDate(*in.HireDate)
	}

	if in.JobTitle != nil {
		jobTitle, err := normalizeRequired(*in.JobTitle, ErrInvalidJobTitle)
		if err != nil {
			return err
		}
		existing.JobTitle = jobTitle
	}

	if in.Department != nil {
		department, err := normalizeRequired(*in.Department, ErrInvalidDepartment)
		if err != nil {
			return err
		}
		existing.Department = department
	}

	if in.Salary != nil {
		if *in.Salary < 0 {
			return ErrInvalidSalary
		}
		existing.Salary = *in.Salary
	}

	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return ErrInvalidStatus
		}
		existing.Status = *in.Status
	}

	return nil
}

// DeleteEmployee は従業員を論理削除します。削除済みレコードの扱いは
// Policy.StrictDelete に従います。
func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	actor := s.actor.CurrentActor(ctx)

	var before *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		if s.policy.StrictDelete && existing.Deleted() {
			return ErrEmployeeAlreadyDeleted
		}

		before = existing.Clone()

		now := s.clock.Now()
		existing.Status = StatusInactive
		existing.DeletedAt = &now
		existing.DeletedBy = &actor
		existing.UpdatedAt = now

		_, err = s.repo.Update(txCtx, existing)
		return err
	}); err != nil {
		return err
	}

	return s.auditor.RecordDelete(ctx, before, actor)
}

// RestoreEmployee は論理削除された従業員を復元します。削除されていない
// レコードに対しては ErrEmployeeNotDeleted を返します。
func (s *Service) RestoreEmployee(ctx context.Context, id int64) (*Employee, error) {
	if id <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var (
		before   *Employee
		restored *Employee
	)

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		if !existing.Deleted() {
			return ErrEmployeeNotDeleted
		}

		before = existing.Clone()

		existing.Status = StatusActive
		existing.DeletedAt = nil
		existing.DeletedBy = nil
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		restored = result
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.auditor.RecordRestore(ctx, before, restored, s.actor.CurrentActor(ctx)); err != nil {
		return nil, err
	}

	return restored, nil
}

// ensureEmailNotExists はメールアドレスの重複を検査します。ストアの
// 大文字小文字を無視した一意インデックスが最終的な防御線であり、
// ここでの検査は同時書き込みに対しては競合し得ます。
func (s *Service) ensureEmailNotExists(ctx context.Context, email string, selfID int64) error {
	existing, err := s.repo.FindByEmailIgnoreCase(ctx, email)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return ErrEmailAlreadyExists
	}
	return nil
}

func normalizeName(raw string, invalid error) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || len(trimmed) > maxNameLength {
		return "", invalid
	}
	return trimmed, nil
}

func normalizeRequired(raw string, invalid error) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalid
	}
	return trimmed, nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(addr.Address), nil
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	normalized := truncateToDate(*t)
	return &normalized
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}
