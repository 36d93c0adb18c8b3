package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	domain "github.com/Zhima-Mochi/minishop-settlement/internal/domain/cart"
)

// CartRepository keeps carts in Redis. Carts are ephemeral by design, so a
// key-value store with no durability guarantees is a fit here; the order
// record is the durable source of truth once settlement starts.
type CartRepository struct {
	client *redis.Client
	prefix string
}

func NewCartRepository(client *redis.Client) *CartRepository {
	return &CartRepository{client: client, prefix: "cart:"}
}

func (r *CartRepository) Get(ctx context.Context, id string) (*domain.Cart, error) {
	raw, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("cart: get: %w", err)
	}
	var c domain.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("cart: decode: %w", err)
	}
	return &c, nil
}

func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	if cart == nil || cart.ID == "" {
		return errors.New("cart: id is required")
	}
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("cart: encode: %w", err)
	}
	return r.client.Set(ctx, r.prefix+cart.ID, raw, 0).Err()
}

func (r *CartRepository) DeleteByID(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.prefix+id).Err()
}
