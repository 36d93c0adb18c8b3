package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems() []LineItem {
	return []LineItem{{ProductID: "p1", Title: "Shirt", Price: 20000, Quantity: 1, Size: "M"}}
}

func testDetails() PaymentDetails {
	return PaymentDetails{PaymentID: "CAP-1", State: "approved", Method: "paypal", PaidAt: time.Now().UTC()}
}

func TestNew(t *testing.T) {
	o, err := New("o1", "u1", "c1", testItems(), Address{}, 100, "PAY-1")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, "paypal", o.PaymentMethod)
	assert.Equal(t, int64(100), o.TotalCents)
	assert.False(t, o.Settled())
}

func TestNew_Rejections(t *testing.T) {
	_, err := New("", "u1", "", testItems(), Address{}, 100, "PAY-1")
	assert.Error(t, err)
	_, err = New("o1", "", "", testItems(), Address{}, 100, "PAY-1")
	assert.Error(t, err)
	_, err = New("o1", "u1", "", nil, Address{}, 100, "PAY-1")
	assert.Error(t, err)
	_, err = New("o1", "u1", "", testItems(), Address{}, 0, "PAY-1")
	assert.Error(t, err)
}

func TestMarkPaid(t *testing.T) {
	o, err := New("o1", "u1", "", testItems(), Address{}, 100, "PAY-1")
	require.NoError(t, err)

	require.NoError(t, o.MarkPaid("payer-1", testDetails()))
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	assert.Equal(t, "payer-1", o.PayerID)
	require.NotNil(t, o.PaymentDetails)
	assert.True(t, o.Settled())

	// A second call is a no-op, not an error.
	require.NoError(t, o.MarkPaid("payer-2", testDetails()))
	assert.Equal(t, "payer-1", o.PayerID)
}

func TestMarkPaid_RequiresDetails(t *testing.T) {
	o, err := New("o1", "u1", "", testItems(), Address{}, 100, "PAY-1")
	require.NoError(t, err)

	err = o.MarkPaid("payer-1", PaymentDetails{})
	assert.ErrorIs(t, err, ErrMissingPayment)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
}

func TestMarkPaid_RejectedOrderCannotSettle(t *testing.T) {
	o, err := New("o1", "u1", "", testItems(), Address{}, 100, "PAY-1")
	require.NoError(t, err)
	require.NoError(t, o.AdvanceStatus(StatusRejected))

	err = o.MarkPaid("payer-1", testDetails())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAdvanceStatus(t *testing.T) {
	o, err := New("o1", "u1", "", testItems(), Address{}, 100, "PAY-1")
	require.NoError(t, err)

	require.NoError(t, o.AdvanceStatus(StatusConfirmed))
	assert.Equal(t, StatusConfirmed, o.Status)

	assert.ErrorIs(t, o.AdvanceStatus(StatusRejected), ErrInvalidTransition)
	assert.ErrorIs(t, o.AdvanceStatus(StatusPending), ErrInvalidTransition)
}

func TestClone_Isolation(t *testing.T) {
	o, err := New("o1", "u1", "", testItems(), Address{}, 100, "PAY-1")
	require.NoError(t, err)
	require.NoError(t, o.MarkPaid("payer-1", testDetails()))

	clone := o.Clone()
	clone.Items[0].Quantity = 99
	clone.PaymentDetails.State = "mutated"

	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Equal(t, "approved", o.PaymentDetails.State)
}
