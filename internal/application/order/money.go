package order

import (
	"fmt"
	"strconv"
	"strings"

	domain "github.com/Zhima-Mochi/minishop-settlement/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-settlement/internal/domain/payment"
)

// Clients submit prices in a fixed-point minor-unit representation where
// 200 minor units equal one cent (20000 minor units = 1.00). All conversion
// happens in integer arithmetic; the two-decimal string is produced only at
// the gateway boundary.
const minorUnitsPerCent = 200

// toleranceTenthCents is the allowed divergence, in tenths of a cent,
// between the re-summed per-item gateway prices and the aggregate total.
const toleranceTenthCents = 1

type normalizedBatch struct {
	// TotalCents is the order total used for validation and persisted on
	// the order at creation.
	TotalCents int64
	// Total is the gateway-ready two-decimal aggregate.
	Total string
	Items []payment.LineItem
}

// normalizeItems validates the whole batch and converts it to the gateway
// representation. Any invalid item rejects the entire batch before any side
// effect.
func normalizeItems(items []domain.LineItem, currency string) (*normalizedBatch, error) {
	if len(items) == 0 {
		return nil, newValidation("at least one cart item is required")
	}

	for i, item := range items {
		switch {
		case item.ProductID == "":
			return nil, newValidation("item %d: product id is required", i)
		case item.Title == "":
			return nil, newValidation("item %d: title is required", i)
		case item.Size == "":
			return nil, newValidation("item %d: size is required", i)
		case item.Price <= 0:
			return nil, newValidation("item %d: price must be greater than zero", i)
		case item.Quantity <= 0:
			return nil, newValidation("item %d: quantity must be greater than zero", i)
		}
	}

	var totalCents int64
	out := make([]payment.LineItem, 0, len(items))
	for _, item := range items {
		priceCents := (item.Price + minorUnitsPerCent/2) / minorUnitsPerCent
		totalCents += priceCents * int64(item.Quantity)
		out = append(out, payment.LineItem{
			Name:     fmt.Sprintf("%s (%s)", item.Title, item.Size),
			SKU:      item.ProductID,
			Price:    formatCents(priceCents),
			Currency: currency,
			Quantity: item.Quantity,
		})
	}

	if totalCents < 1 {
		return nil, newValidation("payment amount must be at least 0.01 %s", currency)
	}

	total := formatCents(totalCents)

	// Re-sum the per-item gateway prices and compare against the aggregate.
	// A divergence means the per-item and aggregate rounding paths split.
	var itemsTenths int64
	for _, it := range out {
		cents, err := parseCents(it.Price)
		if err != nil {
			return nil, newValidation("item %q: malformed gateway price %q", it.Name, it.Price)
		}
		itemsTenths += cents * 10 * int64(it.Quantity)
	}
	totalTenths := totalCents * 10
	if diff := itemsTenths - totalTenths; diff > toleranceTenthCents || diff < -toleranceTenthCents {
		return nil, newValidation("items total %s does not match order total %s",
			formatCents((itemsTenths+5)/10), total)
	}

	return &normalizedBatch{TotalCents: totalCents, Total: total, Items: out}, nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func parseCents(s string) (int64, error) {
	whole, frac, ok := strings.Cut(s, ".")
	if !ok || len(frac) != 2 {
		return 0, fmt.Errorf("money: %q is not a two-decimal amount", s)
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("money: parse %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return w*100 + f, nil
}
