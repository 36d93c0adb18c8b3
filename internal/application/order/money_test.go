package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/minishop-settlement/internal/domain/order"
)

func item(productID, title, size string, price int64, qty int) domain.LineItem {
	return domain.LineItem{ProductID: productID, Title: title, Price: price, Quantity: qty, Size: size}
}

func TestNormalizeItems_GatewayAmounts(t *testing.T) {
	tests := []struct {
		name       string
		items      []domain.LineItem
		wantTotal  string
		wantCents  int64
		wantPrices []string
	}{
		{
			name:       "single item price 20000 qty 2 totals 2.00",
			items:      []domain.LineItem{item("p1", "Shirt", "M", 20000, 2)},
			wantTotal:  "2.00",
			wantCents:  200,
			wantPrices: []string{"1.00"},
		},
		{
			name: "mixed batch sums in cents",
			items: []domain.LineItem{
				item("p1", "Shirt", "M", 19900, 1),  // 99.5 -> 100 cents
				item("p2", "Jeans", "32", 45000, 3), // 225 cents each
			},
			wantTotal:  "7.75",
			wantCents:  775,
			wantPrices: []string{"1.00", "2.25"},
		},
		{
			name:       "sub-dollar amount keeps two decimals",
			items:      []domain.LineItem{item("p1", "Sticker", "one-size", 1000, 1)},
			wantTotal:  "0.05",
			wantCents:  5,
			wantPrices: []string{"0.05"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := normalizeItems(tt.items, "USD")
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, batch.Total)
			assert.Equal(t, tt.wantCents, batch.TotalCents)
			require.Len(t, batch.Items, len(tt.wantPrices))
			for i, want := range tt.wantPrices {
				assert.Equal(t, want, batch.Items[i].Price)
				assert.Equal(t, "USD", batch.Items[i].Currency)
			}
		})
	}
}

// Re-parsing the per-item gateway prices must reproduce the order total in
// cents exactly, for any valid batch.
func TestNormalizeItems_ItemsSumMatchesTotal(t *testing.T) {
	batches := [][]domain.LineItem{
		{item("a", "A", "S", 20000, 1)},
		{item("a", "A", "S", 333, 7), item("b", "B", "M", 99999, 2)},
		{item("a", "A", "S", 201, 1), item("b", "B", "M", 200, 5), item("c", "C", "L", 60000, 4)},
	}

	for _, items := range batches {
		batch, err := normalizeItems(items, "USD")
		require.NoError(t, err)

		var sum int64
		for _, it := range batch.Items {
			cents, perr := parseCents(it.Price)
			require.NoError(t, perr)
			sum += cents * int64(it.Quantity)
		}
		total, err := parseCents(batch.Total)
		require.NoError(t, err)
		assert.Equal(t, total, sum)
		assert.Equal(t, batch.TotalCents, sum)
	}
}

func TestNormalizeItems_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		items []domain.LineItem
	}{
		{"empty batch", nil},
		{"missing product id", []domain.LineItem{item("", "Shirt", "M", 20000, 1)}},
		{"missing title", []domain.LineItem{item("p1", "", "M", 20000, 1)}},
		{"missing size", []domain.LineItem{item("p1", "Shirt", "", 20000, 1)}},
		{"zero price", []domain.LineItem{item("p1", "Shirt", "M", 0, 1)}},
		{"negative price", []domain.LineItem{item("p1", "Shirt", "M", -200, 1)}},
		{"zero quantity", []domain.LineItem{item("p1", "Shirt", "M", 20000, 0)}},
		{"below one cent", []domain.LineItem{item("p1", "Shirt", "M", 50, 1)}},
		{"one bad item rejects whole batch", []domain.LineItem{
			item("p1", "Shirt", "M", 20000, 1),
			item("p2", "Jeans", "", 45000, 1),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalizeItems(tt.items, "USD")
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.01", formatCents(1))
	assert.Equal(t, "0.99", formatCents(99))
	assert.Equal(t, "1.00", formatCents(100))
	assert.Equal(t, "12.05", formatCents(1205))
}

func TestParseCents(t *testing.T) {
	cents, err := parseCents("2.00")
	require.NoError(t, err)
	assert.Equal(t, int64(200), cents)

	_, err = parseCents("2")
	assert.Error(t, err)
	_, err = parseCents("2.5")
	assert.Error(t, err)
}
