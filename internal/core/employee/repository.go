package employee

import "context"

// Repository は従業員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	FindByID(ctx context.Context, id int64) (*Employee, error)
	FindByEmailIgnoreCase(ctx context.Context, email string) (*Employee, error)
	List(ctx context.Context, filter ListFilter) ([]*Employee, int64, error)
}

// ListFilter は一覧取得用フィルタです。指定された条件はすべて AND で合成されます。
type ListFilter struct {
	Department      *string
	Status          *Status
	Search          string
	IncludeInactive bool
	Limit           int
	Offset          int
	Unpaged         bool
}
