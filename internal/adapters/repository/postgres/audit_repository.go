package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/employee-management-api/internal/core/audit"
	pgdb "github.com/ogurasousui/employee-management-api/internal/platform/db/postgres"
)

// AuditRepository は PostgreSQL を利用した監査レコード永続化の実装です。
// employee_audit テーブルは追記専用で、UPDATE / DELETE は発行しません。
type AuditRepository struct {
	pool pgdb.Queryer
}

// NewAuditRepository は AuditRepository を生成します。
func NewAuditRepository(pool pgdb.Queryer) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Create は監査レコードを追記します。
func (r *AuditRepository) Create(ctx context.Context, entry *audit.Entry) (*audit.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employee_audit (employee_id, audit_type, performed_by, performed_at,
                                    before_snapshot, after_snapshot, description)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, employee_id, audit_type, performed_by, performed_at,
                  before_snapshot, after_snapshot, description
    `,
		entry.EmployeeID,
		string(entry.Action),
		entry.PerformedBy,
		entry.PerformedAt,
		nullableString(entry.BeforeSnapshot),
		nullableString(entry.AfterSnapshot),
		entry.Description,
	)

	created, err := scanAuditEntry(row)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListByEmployeeID は従業員の監査履歴を実施時刻の降順で返します。
func (r *AuditRepository) ListByEmployeeID(ctx context.Context, employeeID int64) ([]*audit.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, employee_id, audit_type, performed_by, performed_at,
               before_snapshot, after_snapshot, description
          FROM employee_audit
         WHERE employee_id = $1
         ORDER BY performed_at DESC, id DESC
    `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*audit.Entry, 0)
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func scanAuditEntry(row pgx.Row) (*audit.Entry, error) {
	var (
		id             int64
		employeeID     int64
		auditType      string
		performedBy    string
		performedAt    time.Time
		beforeSnapshot sql.NullString
		afterSnapshot  sql.NullString
		description    string
	)

	if err := row.Scan(
		&id,
		&employeeID,
		&auditType,
		&performedBy,
		&performedAt,
		&beforeSnapshot,
		&afterSnapshot,
		&description,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("postgres: audit entry not returned")
		}
		return nil, err
	}

	entry := &audit.Entry{
		ID:          id,
		EmployeeID:  employeeID,
		Action:      audit.Action(auditType),
		PerformedBy: performedBy,
		PerformedAt: performedAt,
		Description: description,
	}

	if beforeSnapshot.Valid {
		value := beforeSnapshot.String
		entry.BeforeSnapshot = &value
	}
	if afterSnapshot.Valid {
		value := afterSnapshot.String
		entry.AfterSnapshot = &value
	}

	return entry, nil
}
