package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct("p1", "Shirt", []SizeBucket{
		{Size: "M", Stock: 5},
		{Size: "L", Stock: 2},
	})
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	p := testProduct(t)
	assert.Equal(t, 7, p.TotalStock)

	_, err := NewProduct("", "Shirt", nil)
	assert.Error(t, err)
	_, err = NewProduct("p1", "Shirt", []SizeBucket{{Size: "M", Stock: -1}})
	assert.Error(t, err)
}

func TestDeduct(t *testing.T) {
	p := testProduct(t)

	require.NoError(t, p.Deduct("M", 2))
	stock, err := p.StockOf("M")
	require.NoError(t, err)
	assert.Equal(t, 3, stock)
	assert.Equal(t, 5, p.TotalStock)

	// Draining a bucket to zero is allowed.
	require.NoError(t, p.Deduct("L", 2))
	stock, err = p.StockOf("L")
	require.NoError(t, err)
	assert.Zero(t, stock)
}

func TestDeduct_Failures(t *testing.T) {
	p := testProduct(t)

	assert.ErrorIs(t, p.Deduct("M", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, p.Deduct("M", -1), ErrInvalidQuantity)
	assert.ErrorIs(t, p.Deduct("XL", 1), ErrSizeNotFound)
	assert.ErrorIs(t, p.Deduct("M", 6), ErrInsufficientStock)

	// Failed deductions leave the buckets untouched.
	stock, err := p.StockOf("M")
	require.NoError(t, err)
	assert.Equal(t, 5, stock)
	assert.Equal(t, 7, p.TotalStock)
}

func TestStockOf_UnknownSize(t *testing.T) {
	p := testProduct(t)
	_, err := p.StockOf("XL")
	assert.ErrorIs(t, err, ErrSizeNotFound)
}
