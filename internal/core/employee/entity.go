package employee

import "time"

// Status は従業員の在籍状態を表します。
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Employee は従業員エンティティです。
type Employee struct {
	ID          int64
	FirstName   string
	LastName    string
	Email       string
	Phone       *string
	DateOfBirth *time.Time
	HireDate    time.Time
	JobTitle    string
	Department  string
	Salary      float64
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
	DeletedBy   *string
}

// Deleted は従業員が論理削除済みかどうかを返します。
func (e *Employee) Deleted() bool {
	return e.DeletedAt != nil
}

// Clone は従業員の値コピーを返します。変更前スナップショットの捕捉に使用します。
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Phone = cloneString(e.Phone)
	clone.DateOfBirth = cloneTime(e.DateOfBirth)
	clone.DeletedAt = cloneTime(e.DeletedAt)
	clone.DeletedBy = cloneString(e.DeletedBy)
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
