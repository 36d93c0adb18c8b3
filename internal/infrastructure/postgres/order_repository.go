package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/Zhima-Mochi/minishop-settlement/internal/domain/order"
)

// OrderRepository persists orders in PostgreSQL. Line items, address and
// payment details are stored as JSONB columns; filters in List operate on
// the scalar columns.
type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, user_id, cart_id, items, address, order_status, payment_status,
	payment_method, total_cents, payment_id, payer_id, payment_details, created_at, updated_at`

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	items, address, details, err := encodeOrder(order)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, order.ID, order.UserID, order.CartID, items, address, order.Status, order.PaymentStatus,
		order.PaymentMethod, order.TotalCents, order.PaymentID, order.PayerID, details,
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("orders: insert: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	items, address, details, err := encodeOrder(order)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET items = $2, address = $3, order_status = $4, payment_status = $5,
		    payer_id = $6, payment_details = $7, updated_at = $8
		WHERE id = $1
	`, order.ID, items, address, order.Status, order.PaymentStatus,
		order.PayerID, details, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("orders: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("orders: query by user: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *OrderRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Order, int, error) {
	where := "WHERE ($1 = '' OR order_status = $1) AND ($2 = '' OR id = $2 OR items::text ILIKE '%' || $2 || '%')"

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM orders `+where,
		string(filter.Status), filter.Search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("orders: count: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders `+where+`
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, string(filter.Status), filter.Search, filter.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("orders: list: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func encodeOrder(order *domain.Order) (items, address, details []byte, err error) {
	if items, err = json.Marshal(order.Items); err != nil {
		return nil, nil, nil, fmt.Errorf("orders: encode items: %w", err)
	}
	if address, err = json.Marshal(order.Address); err != nil {
		return nil, nil, nil, fmt.Errorf("orders: encode address: %w", err)
	}
	if order.PaymentDetails != nil {
		if details, err = json.Marshal(order.PaymentDetails); err != nil {
			return nil, nil, nil, fmt.Errorf("orders: encode payment details: %w", err)
		}
	}
	return items, address, details, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o       domain.Order
		items   []byte
		address []byte
		details []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &o.CartID, &items, &address, &o.Status, &o.PaymentStatus,
		&o.PaymentMethod, &o.TotalCents, &o.PaymentID, &o.PayerID, &details, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("orders: scan: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("orders: decode items: %w", err)
	}
	if err := json.Unmarshal(address, &o.Address); err != nil {
		return nil, fmt.Errorf("orders: decode address: %w", err)
	}
	if len(details) > 0 {
		o.PaymentDetails = &domain.PaymentDetails{}
		if err := json.Unmarshal(details, o.PaymentDetails); err != nil {
			return nil, fmt.Errorf("orders: decode payment details: %w", err)
		}
	}
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]*domain.Order, error) {
	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
