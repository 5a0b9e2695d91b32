package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/employee-management-api/internal/core/employee"
	pgdb "github.com/ogurasousui/employee-management-api/internal/platform/db/postgres"
)

const (
	employeeUniqueViolationCode = "23505"
	employeeCheckViolationCode  = "23514"
)

const employeeColumns = `id, first_name, last_name, email, phone, date_of_birth, hire_date,
               job_title, department, salary, status, created_at, updated_at, deleted_at, deleted_by`

// EmployeeRepository は PostgreSQL を利用した従業員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は従業員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (first_name, last_name, email, phone, date_of_birth, hire_date,
                               job_title, department, salary, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING `+employeeColumns,
		e.FirstName,
		e.LastName,
		e.Email,
		nullableString(e.Phone),
		nullableDate(e.DateOfBirth),
		truncateDate(e.HireDate),
		e.JobTitle,
		e.Department,
		e.Salary,
		string(e.Status),
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は従業員情報を更新します。削除メタデータも含めて全列を書き戻します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET first_name = $1,
               last_name = $2,
               email = $3,
               phone = $4,
               date_of_birth = $5,
               hire_date = $6,
               job_title = $7,
               department = $8,
               salary = $9,
               status = $10,
               updated_at = $11,
               deleted_at = $12,
               deleted_by = $13
         WHERE id = $14
        RETURNING `+employeeColumns,
		e.FirstName,
		e.LastName,
		e.Email,
		nullableString(e.Phone),
		nullableDate(e.DateOfBirth),
		truncateDate(e.HireDate),
		e.JobTitle,
		e.Department,
		e.Salary,
		string(e.Status),
		e.UpdatedAt,
		nullableTime(e.DeletedAt),
		nullableString(e.DeletedBy),
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// FindByID は ID で従業員を取得します。論理削除済みレコードも対象です。
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// FindByEmailIgnoreCase はメールアドレスの大文字小文字を無視して従業員を検索します。
func (r *EmployeeRepository) FindByEmailIgnoreCase(ctx context.Context, email string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE lower(email) = lower($1)
         LIMIT 1
    `, email)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// List は条件に合致する従業員の一覧と総件数を返します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListFilter) ([]*employee.Employee, int64, error) {
	if !filter.Unpaged {
		if filter.Limit <= 0 {
			return nil, 0, employee.ErrInvalidPageSize
		}
		if filter.Offset < 0 {
			return nil, 0, employee.ErrInvalidPage
		}
	}

	args := make([]any, 0, 4)
	conditions := make([]string, 0, 4)

	if filter.Department != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "lower(department) = lower("+placeholder+")")
		args = append(args, *filter.Department)
	}

	if filter.Status != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "status = "+placeholder)
		args = append(args, string(*filter.Status))
	}

	if filter.Search != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions,
			"(first_name ILIKE "+placeholder+" OR last_name ILIKE "+placeholder+" OR email ILIKE "+placeholder+")")
		args = append(args, "%"+filter.Search+"%")
	}

	if !filter.IncludeInactive {
		conditions = append(conditions, "deleted_at IS NULL")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var total int64
	countRow := exec.QueryRow(ctx, `SELECT count(*) FROM employees`+whereClause, args...)
	if err := countRow.Scan(&total); err != nil {
		return nil, 0, translateEmployeePgError(err)
	}

	query := `
        SELECT ` + employeeColumns + `
          FROM employees` + whereClause + `
         ORDER BY created_at DESC, id DESC`

	if !filter.Unpaged {
		limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
		args = append(args, filter.Limit)
		offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
		args = append(args, filter.Offset)
		query += `
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder
	}

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, translateEmployeePgError(err)
	}

	return employees, total, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id          int64
		firstName   string
		lastName    string
		email       string
		phone       sql.NullString
		dateOfBirth sql.NullTime
		hireDate    time.Time
		jobTitle    string
		department  string
		salary      float64
		status      string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
		deletedBy   sql.NullString
	)

	if err := row.Scan(
		&id,
		&firstName,
		&lastName,
		&email,
		&phone,
		&dateOfBirth,
		&hireDate,
		&jobTitle,
		&department,
		&salary,
		&status,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&deletedBy,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	emp := &employee.Employee{
		ID:         id,
		FirstName:  firstName,
		LastName:   lastName,
		Email:      email,
		HireDate:   normalizeScannedDate(hireDate),
		JobTitle:   jobTitle,
		Department: department,
		Salary:     salary,
		Status:     employee.Status(status),
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}

	if phone.Valid {
		value := phone.String
		emp.Phone = &value
	}
	if dateOfBirth.Valid {
		value := normalizeScannedDate(dateOfBirth.Time)
		emp.DateOfBirth = &value
	}
	if deletedAt.Valid {
		value := deletedAt.Time.UTC()
		emp.DeletedAt = &value
	}
	if deletedBy.Valid {
		value := deletedBy.String
		emp.DeletedBy = &value
	}

	return emp, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case employeeUniqueViolationCode:
			return employee.ErrEmailAlreadyExists
		case employeeCheckViolationCode:
			return employee.ErrInvalidSalary
		}
	}

	return err
}

func normalizeScannedDate(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return truncateDate(*value)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
