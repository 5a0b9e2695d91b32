package audit

import "context"

// Repository は監査レコード永続化の抽象です。追記と従業員単位の参照のみを
// 提供し、更新・削除の操作は存在しません。
type Repository interface {
	Create(ctx context.Context, entry *Entry) (*Entry, error)
	ListByEmployeeID(ctx context.Context, employeeID int64) ([]*Entry, error)
}
