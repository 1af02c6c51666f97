package sales

import (
	"fmt"

	"github.com/stockbook/stockbook/internal/inventory"
)

// ValidationError reports the first rule a set of line items broke. Err is
// one of the line validation sentinels.
type ValidationError struct {
	Err       error
	Line      int
	Product   string
	Variant   string
	Requested int64
	Available int64
}

func (e *ValidationError) Error() string {
	switch e.Err {
	case ErrPriceBelowCost:
		return fmt.Sprintf("price for '%s' is too low and will result in a loss", e.item())
	case ErrInsufficientStock:
		return fmt.Sprintf("not enough stock for '%s': requested %d, available %d", e.item(), e.Requested, e.Available)
	case ErrInvalidQuantity:
		return fmt.Sprintf("quantity for line %d must be between 1 and %d", e.Line, MaxLineQuantity)
	case ErrMissingSelection:
		return "please select a product and variant for all line items"
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) item() string {
	if e.Variant == "" {
		return e.Product
	}
	return fmt.Sprintf("%s (%s)", e.Product, e.Variant)
}

// Validate checks requested lines against a stock snapshot and returns the
// finalized lines. Checks run in phases and stop at the first failure:
// required selections and quantities, then the price floor per line, then
// aggregated stock per variant in first-appearance order.
func Validate(lines []RequestedLine, snapshot *inventory.Snapshot) ([]InvoiceLine, error) {
	if len(lines) == 0 {
		return nil, &ValidationError{Err: ErrMissingSelection}
	}

	names := make([]string, len(lines))
	for i, line := range lines {
		if line.ProductID == 0 || line.Variant == nil {
			return nil, &ValidationError{Err: ErrMissingSelection, Line: i + 1}
		}
		name, ok := snapshot.ProductName(line.ProductID)
		if !ok {
			return nil, &ValidationError{Err: ErrMissingSelection, Line: i + 1}
		}
		if line.Quantity <= 0 || line.Quantity > MaxLineQuantity {
			return nil, &ValidationError{Err: ErrInvalidQuantity, Line: i + 1, Product: name, Variant: line.Variant.Attributes.Label()}
		}
		names[i] = name
	}

	for i, line := range lines {
		if !line.UnitPrice.GreaterThan(line.Variant.CostPrice) {
			return nil, &ValidationError{
				Err:     ErrPriceBelowCost,
				Line:    i + 1,
				Product: names[i],
				Variant: line.Variant.Attributes.Label(),
			}
		}
	}

	order, totals := aggregateOrdered(lines)
	for _, key := range order {
		requested := totals[key]
		available := snapshot.Available(key)
		if requested > available {
			line := firstLineFor(lines, key)
			return nil, &ValidationError{
				Err:       ErrInsufficientStock,
				Line:      line + 1,
				Product:   names[line],
				Variant:   lines[line].Variant.Attributes.Label(),
				Requested: requested,
				Available: available,
			}
		}
	}

	out := make([]InvoiceLine, len(lines))
	for i, line := range lines {
		out[i] = InvoiceLine{
			ProductID:   line.ProductID,
			ProductName: names[i],
			Attributes:  line.Variant.Attributes.Clone(),
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			UnitCost:    line.Variant.CostPrice,
		}
	}
	return out, nil
}

func firstLineFor(lines []RequestedLine, key inventory.VariantKey) int {
	for i, line := range lines {
		if line.Variant != nil && inventory.KeyOf(line.ProductID, line.Variant.Attributes) == key {
			return i
		}
	}
	return 0
}
