package sales

import "github.com/shopspring/decimal"

// ComputeTotals sums quantity times unit price over the lines. Amounts are
// not rounded; documents format them to two places.
func ComputeTotals(lines []InvoiceLine) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Amount())
	}
	return Totals{Subtotal: subtotal, Total: subtotal}
}

func requestedTotals(lines []RequestedLine) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)))
	}
	return Totals{Subtotal: subtotal, Total: subtotal}
}
