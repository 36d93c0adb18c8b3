package inventory

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("inventory: product not found")
	ErrSizeNotFound      = errors.New("inventory: size not found")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// SizeBucket is a per-size stock counter within a product record.
type SizeBucket struct {
	Size  string
	Stock int
}

type Product struct {
	ID         string
	Title      string
	Sizes      []SizeBucket
	TotalStock int
	UpdatedAt  time.Time
}

func NewProduct(id, title string, sizes []SizeBucket) (*Product, error) {
	if id == "" {
		return nil, errors.New("inventory: product id is required")
	}
	for _, s := range sizes {
		if s.Stock < 0 {
			return nil, errors.New("inventory: stock must be zero or greater")
		}
	}
	p := &Product{
		ID:        id,
		Title:     title,
		Sizes:     append([]SizeBucket(nil), sizes...),
		UpdatedAt: time.Now().UTC(),
	}
	p.recomputeTotal()
	return p, nil
}

// Deduct removes quantity from the named size bucket. The check happens
// before any mutation, so stock never goes negative.
func (p *Product) Deduct(size string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	idx := -1
	for i, s := range p.Sizes {
		if s.Size == size {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrSizeNotFound
	}
	if p.Sizes[idx].Stock < quantity {
		return ErrInsufficientStock
	}
	p.Sizes[idx].Stock -= quantity
	p.recomputeTotal()
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// StockOf reports the remaining stock for a size, or ErrSizeNotFound.
func (p *Product) StockOf(size string) (int, error) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Stock, nil
		}
	}
	return 0, ErrSizeNotFound
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Sizes = append([]SizeBucket(nil), p.Sizes...)
	return &clone
}

func (p *Product) recomputeTotal() {
	total := 0
	for _, s := range p.Sizes {
		total += s.Stock
	}
	p.TotalStock = total
}
