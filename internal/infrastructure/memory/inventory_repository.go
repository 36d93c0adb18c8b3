package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-settlement/internal/domain/inventory"
)

type InventoryRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{products: make(map[string]*domain.Product)}
}

func (r *InventoryRepository) GetByProductID(ctx context.Context, productID string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return product.Clone(), nil
}

func (r *InventoryRepository) Save(ctx context.Context, product *domain.Product) error {
	_ = ctx
	if product == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.ID] = product.Clone()
	return nil
}

// DeductStock checks and decrements the bucket under the repository lock,
// so concurrent callers observe each other's decrements.
func (r *InventoryRepository) DeductStock(ctx context.Context, productID, size string, quantity int) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	return product.Deduct(size, quantity)
}
