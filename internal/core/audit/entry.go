package audit

import "time"

// Action は監査対象の操作種別を表します。
type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionUpdate  Action = "UPDATE"
	ActionDelete  Action = "DELETE"
	ActionRestore Action = "RESTORE"
)

// Entry は従業員に対する1回の変更を記録する追記専用の監査レコードです。
// 作成後に更新・削除されることはありません。
type Entry struct {
	ID             int64
	EmployeeID     int64
	Action         Action
	PerformedBy    string
	PerformedAt    time.Time
	BeforeSnapshot *string
	AfterSnapshot  *string
	Description    string
}
