package sales

import (
	"math"

	"github.com/stockbook/stockbook/internal/inventory"
)

// Aggregate sums requested quantities per variant. Lines without a selected
// variant are skipped. The input is not modified. Sums saturate at
// math.MaxInt64 so an oversized request can never wrap below the stock on
// hand.
func Aggregate(lines []RequestedLine) map[inventory.VariantKey]int64 {
	_, totals := aggregateOrdered(lines)
	return totals
}

// aggregateOrdered also returns keys in first-appearance order.
func aggregateOrdered(lines []RequestedLine) ([]inventory.VariantKey, map[inventory.VariantKey]int64) {
	totals := make(map[inventory.VariantKey]int64)
	var order []inventory.VariantKey
	for _, line := range lines {
		if line.Variant == nil {
			continue
		}
		key := inventory.KeyOf(line.ProductID, line.Variant.Attributes)
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] = addQuantity(totals[key], line.Quantity)
	}
	return order, totals
}

func addQuantity(sum, qty int64) int64 {
	if qty > 0 && sum > math.MaxInt64-qty {
		return math.MaxInt64
	}
	if qty < 0 && sum < math.MinInt64-qty {
		return math.MinInt64
	}
	return sum + qty
}
