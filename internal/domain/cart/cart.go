package cart

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("cart: not found")

type Item struct {
	ProductID string
	Title     string
	Price     int64
	Quantity  int
	Size      string
}

// Cart holds a shopper's pending line items. It is ephemeral: the
// settlement workflow deletes it once the referencing order settles.
type Cart struct {
	ID        string
	UserID    string
	Items     []Item
	UpdatedAt time.Time
}
