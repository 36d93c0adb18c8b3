package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/Zhima-Mochi/minishop-settlement/internal/domain/inventory"
)

// InventoryRepository persists products and their size buckets. Settlement
// goes through DeductStock, whose check and decrement are one guarded
// statement; Save is the provisioning path for whole product records.
type InventoryRepository struct {
	db *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) GetByProductID(ctx context.Context, productID string) (*domain.Product, error) {
	var (
		id    string
		title string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, title FROM products WHERE id = $1
	`, productID).Scan(&id, &title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("inventory: get product: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT size, stock FROM product_sizes
		WHERE product_id = $1
		ORDER BY position
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("inventory: get sizes: %w", err)
	}
	defer rows.Close()

	var sizes []domain.SizeBucket
	for rows.Next() {
		var b domain.SizeBucket
		if err := rows.Scan(&b.Size, &b.Stock); err != nil {
			return nil, fmt.Errorf("inventory: scan size: %w", err)
		}
		sizes = append(sizes, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inventory: read sizes: %w", err)
	}

	return domain.NewProduct(id, title, sizes)
}

func (r *InventoryRepository) Save(ctx context.Context, product *domain.Product) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("inventory: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the product row for the duration of the bucket writes.
	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, product.ID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("inventory: lock product: %w", err)
	}

	for pos, b := range product.Sizes {
		tag, err := tx.Exec(ctx, `
			UPDATE product_sizes
			SET stock = $3, position = $4
			WHERE product_id = $1 AND size = $2
		`, product.ID, b.Size, b.Stock, pos)
		if err != nil {
			return fmt.Errorf("inventory: update bucket %q: %w", b.Size, err)
		}
		if tag.RowsAffected() == 0 {
			_, err = tx.Exec(ctx, `
				INSERT INTO product_sizes (product_id, size, stock, position)
				VALUES ($1, $2, $3, $4)
			`, product.ID, b.Size, b.Stock, pos)
			if err != nil {
				return fmt.Errorf("inventory: insert bucket %q: %w", b.Size, err)
			}
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE products SET total_stock = $2, updated_at = NOW() WHERE id = $1
	`, product.ID, product.TotalStock)
	if err != nil {
		return fmt.Errorf("inventory: update product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("inventory: commit: %w", err)
	}
	return nil
}

// DeductStock decrements one bucket with the check folded into the UPDATE
// predicate, so two instances racing on the last unit cannot both win: the
// loser matches zero rows and gets the stock error.
func (r *InventoryRepository) DeductStock(ctx context.Context, productID, size string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("inventory: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE product_sizes
		SET stock = stock - $3
		WHERE product_id = $1 AND size = $2 AND stock >= $3
	`, productID, size, quantity)
	if err != nil {
		return fmt.Errorf("inventory: deduct bucket %q: %w", size, err)
	}
	if tag.RowsAffected() == 0 {
		return r.deductFailure(ctx, productID, size)
	}

	_, err = tx.Exec(ctx, `
		UPDATE products
		SET total_stock = total_stock - $2, updated_at = NOW()
		WHERE id = $1
	`, productID, quantity)
	if err != nil {
		return fmt.Errorf("inventory: update product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("inventory: commit: %w", err)
	}
	return nil
}

// deductFailure tells apart the three reasons a guarded decrement can match
// zero rows.
func (r *InventoryRepository) deductFailure(ctx context.Context, productID, size string) error {
	var stock int
	err := r.db.QueryRow(ctx, `
		SELECT stock FROM product_sizes WHERE product_id = $1 AND size = $2
	`, productID, size).Scan(&stock)
	if err == nil {
		return domain.ErrInsufficientStock
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("inventory: inspect bucket %q: %w", size, err)
	}

	var exists bool
	err = r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)
	`, productID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("inventory: inspect product: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrSizeNotFound
}
