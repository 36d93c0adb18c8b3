package order

import "time"

// OrderCreatedEvent is emitted when an order enters the pending/pending state.
type OrderCreatedEvent struct {
	OrderID    string
	UserID     string
	TotalCents int64
	OccurredAt time.Time
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalCents: o.TotalCents,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderSettledEvent is emitted once payment is captured and inventory has
// been reconciled.
type OrderSettledEvent struct {
	OrderID    string
	UserID     string
	PaymentID  string
	TotalCents int64
	OccurredAt time.Time
}

func (OrderSettledEvent) EventName() string { return "order.settled" }

func NewOrderSettledEvent(o *Order) OrderSettledEvent {
	e := OrderSettledEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalCents: o.TotalCents,
		OccurredAt: time.Now().UTC(),
	}
	if o.PaymentDetails != nil {
		e.PaymentID = o.PaymentDetails.PaymentID
	}
	return e
}
