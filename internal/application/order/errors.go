package order

import (
	"errors"
	"fmt"
)

// ValidationError marks bad input rejected before any side effect. Safe to
// retry with corrected input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "validation: " + e.Msg }

func newValidation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotApprovedError means the gateway responded but did not approve the
// capture. The order is left untouched so the shopper can retry the same
// intent.
type NotApprovedError struct {
	State string
}

func (e *NotApprovedError) Error() string {
	return fmt.Sprintf("payment: not approved (state %q)", e.State)
}

// CapturedUnsettledError is the recognized dual-state hazard: the gateway
// has captured funds but local inventory/order reconciliation did not
// complete. It requires manual reconciliation and must never be reported as
// a generic failure.
type CapturedUnsettledError struct {
	OrderID   string
	PaymentID string
	Stage     string
	ProductID string
	Size      string
	Err       error
}

func (e *CapturedUnsettledError) Error() string {
	if e.ProductID != "" {
		return fmt.Sprintf("settlement: payment %s captured but order %s unsettled at %s (product %s, size %s): %v",
			e.PaymentID, e.OrderID, e.Stage, e.ProductID, e.Size, e.Err)
	}
	return fmt.Sprintf("settlement: payment %s captured but order %s unsettled at %s: %v",
		e.PaymentID, e.OrderID, e.Stage, e.Err)
}

func (e *CapturedUnsettledError) Unwrap() error { return e.Err }

// IsCapturedUnsettled reports whether err carries the captured-but-unsettled
// condition anywhere in its chain.
func IsCapturedUnsettled(err error) bool {
	var cu *CapturedUnsettledError
	return errors.As(err, &cu)
}
