package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-settlement/internal/domain/cart"
)

type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]*domain.Cart)}
}

func (r *CartRepository) Get(ctx context.Context, id string) (*domain.Cart, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.carts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *c
	clone.Items = append([]domain.Item(nil), c.Items...)
	return &clone, nil
}

func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	_ = ctx
	if cart == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *cart
	clone.Items = append([]domain.Item(nil), cart.Items...)
	r.carts[cart.ID] = &clone
	return nil
}

func (r *CartRepository) DeleteByID(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, id)
	return nil
}
