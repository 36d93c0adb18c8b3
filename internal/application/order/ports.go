package order

// IDGenerator assigns identities to new orders.
type IDGenerator interface {
	NewID() string
}
