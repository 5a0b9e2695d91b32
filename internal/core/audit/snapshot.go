package audit

import (
	"encoding/json"
	"time"

	"github.com/ogurasousui/employee-management-api/internal/core/employee"
)

// Snapshot は監査レコードに埋め込む従業員の値コピーです。監査対象の
// 全フィールドを保持します。
type Snapshot struct {
	ID          int64      `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	Phone       *string    `json:"phone"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	HireDate    time.Time  `json:"hireDate"`
	JobTitle    string     `json:"jobTitle"`
	Department  string     `json:"department"`
	Salary      float64    `json:"salary"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt"`
	DeletedBy   *string    `json:"deletedBy"`
}

// SnapshotCodec は従業員スナップショットを保存可能な形式へ直列化します。
type SnapshotCodec interface {
	Encode(e *employee.Employee) (string, error)
}

// JSONSnapshotCodec はフィールドタグ付き JSON へ直列化する既定の実装です。
// 同一入力に対して常に同一の出力を返します。
type JSONSnapshotCodec struct{}

// Encode は従業員を JSON 文字列へ直列化します。
func (JSONSnapshotCodec) Encode(e *employee.Employee) (string, error) {
	snapshot := Snapshot{
		ID:          e.ID,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		Email:       e.Email,
		Phone:       e.Phone,
		DateOfBirth: e.DateOfBirth,
		HireDate:    e.HireDate,
		JobTitle:    e.JobTitle,
		Department:  e.Department,
		Salary:      e.Salary,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		DeletedAt:   e.DeletedAt,
		DeletedBy:   e.DeletedBy,
	}

	b, err := json.Marshal(snapshot)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
