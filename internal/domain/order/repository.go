package order

import "context"

// ListFilter narrows the admin order listing. Zero values mean "no filter".
type ListFilter struct {
	Status Status
	Search string
	Page   int
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	Save(ctx context.Context, order *Order) error
	FindByUser(ctx context.Context, userID string) ([]*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, int, error)
}
