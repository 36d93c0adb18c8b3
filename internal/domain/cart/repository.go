package cart

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	DeleteByID(ctx context.Context, id string) error
}
