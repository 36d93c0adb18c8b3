package outbox

import "context"

// Event is a named domain event. The settlement workflow emits
// order.created and order.settled; the name doubles as the subscription
// key and the broker routing key.
type Event interface {
	EventName() string
}

// Handler processes a published event.
type Handler func(ctx context.Context, e Event) error

// Publisher is the workflow's outbound port. Publishing is fire-and-forget
// from the workflow's point of view: settlement never fails because an
// event could not be delivered.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
