package payment

import (
	"context"
	"fmt"
)

// StateApproved is the gateway state that means funds were captured.
// Anything else is a failure, even when the transport call succeeded.
const StateApproved = "approved"

// LineItem is a gateway-ready line item. Price is a two-decimal string
// produced by the normalization path; the gateway rejects anything else.
type LineItem struct {
	Name     string
	SKU      string
	Price    string
	Currency string
	Quantity int
}

type CreateIntentRequest struct {
	Total    string
	Currency string
	Items    []LineItem
}

// Intent is the gateway-side authorized-but-not-captured payment record.
type Intent struct {
	ID          string
	ApprovalURL string
}

// Capture is the gateway's response to executing an intent.
type Capture struct {
	PaymentID string
	State     string
}

type Gateway interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	Execute(ctx context.Context, intentID, payerID string) (*Capture, error)
}

// GatewayError carries the gateway's own message and raw response body
// verbatim. Downstream diagnostics depend on that detail, so it is never
// collapsed into a generic error.
type GatewayError struct {
	Op      string
	Message string
	Raw     string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %s: %s", e.Op, e.Message)
}
