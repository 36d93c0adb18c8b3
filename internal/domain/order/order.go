package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrInvalidTransition = errors.New("order: invalid status transition")
	ErrMissingPayment    = errors.New("order: paid order requires payment details")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// LineItem is a snapshot of a purchased product variant. Price is in the
// client's minor-unit representation (200 minor units = 1 cent).
type LineItem struct {
	ProductID string
	Title     string
	Price     int64
	Quantity  int
	Size      string
}

type Address struct {
	AddressID string
	Address   string
	City      string
	Pincode   string
	Phone     string
	Notes     string
}

// PaymentDetails records the gateway's view of a completed payment.
type PaymentDetails struct {
	PaymentID string
	State     string
	Method    string
	PaidAt    time.Time
}

type Order struct {
	ID            string
	UserID        string
	CartID        string
	Items         []LineItem
	Address       Address
	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod string
	// TotalCents is fixed at creation; it is the amount submitted to the
	// gateway and is never re-derived afterwards.
	TotalCents     int64
	PaymentID      string
	PayerID        string
	PaymentDetails *PaymentDetails
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func New(id, userID, cartID string, items []LineItem, address Address, totalCents int64, paymentID string) (*Order, error) {
	if id == "" {
		return nil, errors.New("order: id is required")
	}
	if userID == "" {
		return nil, errors.New("order: user id is required")
	}
	if len(items) == 0 {
		return nil, errors.New("order: at least one line item is required")
	}
	if totalCents < 1 {
		return nil, errors.New("order: total must be at least one cent")
	}

	now := time.Now().UTC()
	return &Order{
		ID:            id,
		UserID:        userID,
		CartID:        cartID,
		Items:         append([]LineItem(nil), items...),
		Address:       address,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		PaymentMethod: "paypal",
		TotalCents:    totalCents,
		PaymentID:     paymentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// MarkPaid transitions the order to its terminal settled state. It is the
// only mutation the settlement workflow performs on an order.
func (o *Order) MarkPaid(payerID string, details PaymentDetails) error {
	if o.PaymentStatus == PaymentPaid {
		return nil
	}
	if o.Status != StatusPending {
		return ErrInvalidTransition
	}
	if details.PaymentID == "" || details.State == "" {
		return ErrMissingPayment
	}
	o.PaymentStatus = PaymentPaid
	o.Status = StatusConfirmed
	o.PayerID = payerID
	d := details
	o.PaymentDetails = &d
	o.touch()
	return nil
}

// AdvanceStatus moves the order status forward. Only pending orders may
// advance; settled orders never regress.
func (o *Order) AdvanceStatus(next Status) error {
	if next != StatusConfirmed && next != StatusRejected {
		return ErrInvalidTransition
	}
	if o.Status != StatusPending {
		return ErrInvalidTransition
	}
	o.Status = next
	o.touch()
	return nil
}

func (o *Order) Settled() bool {
	return o.PaymentStatus == PaymentPaid
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	if o.PaymentDetails != nil {
		d := *o.PaymentDetails
		clone.PaymentDetails = &d
	}
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
