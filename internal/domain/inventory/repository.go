package inventory

import "context"

type Repository interface {
	GetByProductID(ctx context.Context, productID string) (*Product, error)
	Save(ctx context.Context, product *Product) error
	// DeductStock atomically removes quantity from one size bucket. The
	// check and the decrement happen in a single guarded operation, so
	// stock never goes negative even across concurrent callers.
	DeductStock(ctx context.Context, productID, size string, quantity int) error
}
