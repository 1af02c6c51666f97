package sales

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockbook/stockbook/internal/inventory"
)

func attrs(pairs ...string) inventory.Attributes {
	var out inventory.Attributes
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, inventory.Attribute{Name: pairs[i], Value: pairs[i+1]})
	}
	return out
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func shirtCatalog() []inventory.Product {
	return []inventory.Product{
		{
			ID:   1,
			Name: "Shirt",
			Variants: []inventory.Variant{
				{ID: 11, Attributes: attrs("Color", "Blue", "Size", "L"), Quantity: 5, CostPrice: money("6.00"), SellingPrice: money("10.00")},
				{ID: 12, Attributes: attrs("Color", "Red", "Size", "M"), Quantity: 2, CostPrice: money("6.00"), SellingPrice: money("10.00")},
			},
		},
		{
			ID:   2,
			Name: "Cap",
			Variants: []inventory.Variant{
				{ID: 21, Attributes: attrs("Color", "Black"), Quantity: 10, CostPrice: money("2.00"), SellingPrice: money("5.00")},
			},
		},
	}
}

func selection(productID int64, a inventory.Attributes, cost string, qty int64, price string) RequestedLine {
	return RequestedLine{
		ProductID: productID,
		Variant:   &inventory.Variant{Attributes: a, CostPrice: money(cost)},
		Quantity:  qty,
		UnitPrice: money(price),
	}
}

func TestAggregateSumsRegardlessOfAttributeOrder(t *testing.T) {
	lines := []RequestedLine{
		selection(1, attrs("Color", "Blue", "Size", "L"), "6", 2, "10"),
		selection(1, attrs("Size", "L", "Color", "Blue"), "6", 3, "10"),
		selection(2, attrs("Color", "Black"), "2", 1, "5"),
		{ProductID: 2, Quantity: 9},
	}

	got := Aggregate(lines)
	require.Len(t, got, 2)
	require.Equal(t, int64(5), got[inventory.KeyOf(1, attrs("Color", "Blue", "Size", "L"))])
	require.Equal(t, int64(1), got[inventory.KeyOf(2, attrs("Color", "Black"))])
}

func TestAggregateIsRepeatable(t *testing.T) {
	lines := []RequestedLine{
		selection(1, attrs("Size", "L", "Color", "Blue"), "6", 2, "10"),
		selection(1, attrs("Color", "Blue", "Size", "L"), "6", 1, "10"),
	}
	first := Aggregate(lines)
	second := Aggregate(lines)

	require.Equal(t, first, second)
	require.Equal(t, "L / Blue", lines[0].Variant.Attributes.Label())
	require.Equal(t, int64(2), lines[0].Quantity)
}

func TestValidateSuccessFreezesLines(t *testing.T) {
	snap := inventory.NewSnapshot(shirtCatalog())
	lines := []RequestedLine{
		selection(1, attrs("Color", "Blue", "Size", "L"), "6.00", 2, "10.00"),
		selection(2, attrs("Color", "Black"), "2.00", 1, "5.00"),
	}

	out, err := Validate(lines, snap)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "Shirt", out[0].ProductName)
	require.Equal(t, "Blue / L", out[0].Attributes.Label())
	require.True(t, money("6.00").Equal(out[0].UnitCost))
	require.Equal(t, "Cap", out[1].ProductName)

	lines[0].Variant.Attributes[0].Value = "Green"
	require.Equal(t, "Blue / L", out[0].Attributes.Label())
}

func TestValidateMissingSelection(t *testing.T) {
	snap := inventory.NewSnapshot(shirtCatalog())

	cases := map[string][]RequestedLine{
		"no lines":        nil,
		"no variant":      {{ProductID: 1, Quantity: 1, UnitPrice: money("10")}},
		"no product":      {selection(0, attrs("Color", "Blue"), "1", 1, "10")},
		"unknown product": {selection(99, attrs("Color", "Blue"), "1", 1, "10")},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Validate(lines, snap)
			require.ErrorIs(t, err, ErrMissingSelection)
			require.EqualError(t, err, "please select a product and variant for all line items")
		})
	}
}

func TestValidateRejectsNonPositiveQuantity(t *testing.T) {
	snap := inventory.NewSnapshot(shirtCatalog())
	_, err := Validate([]RequestedLine{selection(2, attrs("Color", "Black"), "2", 0, "5")}, snap)
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.EqualError(t, err, "quantity for line 1 must be between 1 and 1000000000")
}

func TestValidationSentinelsCarryPackagePrefix(t *testing.T) {
	for _, err := range []error{ErrMissingSelection, ErrInvalidQuantity, ErrPriceBelowCost, ErrInsufficientStock} {
		require.True(t, strings.HasPrefix(err.Error(), "sales: "), err.Error())
	}
}

func TestValidatePriceFloorIsStrict(t *testing.T) {
	snap := inventory.NewSnapshot(shirtCatalog())

	_, err := Validate([]RequestedLine{selection(1, attrs("Color", "Blue", "Size", "L"), "6.00", 1, "6.00")}, snap)
	require.ErrorIs(t, err, ErrPriceBelowCost)
	require.EqualError(t, err, "price for 'Shirt (Blue / L)' is too low and will result in a loss")

	_, err = Validate([]RequestedLine{selection(1, attrs("Color", "Blue", "Size", "L"), "6.00", 1, "6.01")}, snap)
	require.NoError(t, err)
}

func TestValidatePriceCheckedBeforeStock(t *testing.T) {
	snap := inventory.NewSnapshot(shirtCatalog())
	lines := []RequestedLine{
		selection(1, attrs("Color", "Blue", "Size", "L"), "6", 500, "10"),
		selection(2, attrs("Color", "Black"), "2", 1, "1.50"),
	}

	_, err := Validate(lines, snap)
	require.ErrorIs(t, err, ErrPriceBelowCost)
	require.NotErrorIs(t, err, ErrInsufficientStock)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, 2, verr.Line)
	require.Equal(t, "Cap", verr.Product)
}

func TestValidateStockUsesAggregatedQuantity(t *testing.T) {
	snap := inventory.NewSnapshot(shirtCatalog())
	lines := []RequestedLine{
		selection(1, attrs("Color", "Blue", "Size", "L"), "6", 3, "10"),
		selection(1, attrs("Size", "L", "Color", "Blue"), "6", 3, "12"),
	}

	_, err := Validate(lines, snap)
	require.ErrorIs(t, err, ErrInsufficientStock)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, int64(6), verr.Requested)
	require.Equal(t, int64(5), verr.Available)
	require.EqualError(t, err, "not enough stock for 'Shirt (Blue / L)': requested 6, available 5")

	lines[1].Quantity = 2
	_, err = Validate(lines, snap)
	require.NoError(t, err)
}

func TestAggregateSaturatesInsteadOfWrapping(t *testing.T) {
	blueL := inventory.KeyOf(1, attrs("Color", "Blue", "Size", "L"))
	cases := map[string]struct {
		quantities []int64
		want       int64
	}{
		"two max lines":     {[]int64{math.MaxInt64, math.MaxInt64}, math.MaxInt64},
		"max plus one":      {[]int64{math.MaxInt64, 1}, math.MaxInt64},
		"just below max":    {[]int64{math.MaxInt64 - 2, 1, 1}, math.MaxInt64},
		"ordinary quantity": {[]int64{3, 4}, 7},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var lines []RequestedLine
			for _, q := range tc.quantities {
				lines = append(lines, selection(1, attrs("Color", "Blue", "Size", "L"), "6", q, "10"))
			}
			require.Equal(t, tc.want, Aggregate(lines)[blueL])
		})
	}
}

func TestValidateQuantityBounds(t *testing.T) {
	snap := inventory.NewSnapshot(shirtCatalog())
	cases := map[string]struct {
		quantities []int64
		err        error
	}{
		"single line above bound":   {[]int64{MaxLineQuantity + 1}, ErrInvalidQuantity},
		"two max int64 lines":       {[]int64{math.MaxInt64, math.MaxInt64}, ErrInvalidQuantity},
		"two lines at bound":        {[]int64{MaxLineQuantity, MaxLineQuantity}, ErrInsufficientStock},
		"aggregate just over stock": {[]int64{3, 3}, ErrInsufficientStock},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var lines []RequestedLine
			for _, q := range tc.quantities {
				lines = append(lines, selection(1, attrs("Color", "Blue", "Size", "L"), "6", q, "10"))
			}
			_, err := Validate(lines, snap)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestValidateAggregateNeverWrapsBelowStock(t *testing.T) {
	snap := inventory.NewSnapshot(shirtCatalog())
	lines := []RequestedLine{
		selection(1, attrs("Color", "Blue", "Size", "L"), "6", MaxLineQuantity, "10"),
		selection(1, attrs("Size", "L", "Color", "Blue"), "6", MaxLineQuantity, "10"),
	}

	_, err := Validate(lines, snap)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, 2*MaxLineQuantity, verr.Requested)
	require.Equal(t, int64(5), verr.Available)
}

func TestValidateStockReportsFirstFailingKeyInOrder(t *testing.T) {
	snap := inventory.NewSnapshot(shirtCatalog())
	lines := []RequestedLine{
		selection(2, attrs("Color", "Black"), "2", 11, "5"),
		selection(1, attrs("Color", "Red", "Size", "M"), "6", 3, "10"),
	}

	_, err := Validate(lines, snap)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Cap", verr.Product)
	require.Equal(t, int64(10), verr.Available)
}

func TestValidateUnknownVariantHasNoStock(t *testing.T) {
	snap := inventory.NewSnapshot(shirtCatalog())
	_, err := Validate([]RequestedLine{selection(1, attrs("Color", "Green"), "1", 1, "10")}, snap)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Zero(t, verr.Available)
}

func TestComputeTotals(t *testing.T) {
	totals := ComputeTotals([]InvoiceLine{
		{Quantity: 2, UnitPrice: money("10.00")},
		{Quantity: 1, UnitPrice: money("5.00")},
	})
	require.Equal(t, "25.00", totals.Subtotal.StringFixed(2))
	require.Equal(t, "25.00", totals.Total.StringFixed(2))

	drift := ComputeTotals([]InvoiceLine{
		{Quantity: 3, UnitPrice: money("0.10")},
		{Quantity: 1, UnitPrice: money("0.20")},
	})
	require.True(t, money("0.5").Equal(drift.Total))

	empty := ComputeTotals(nil)
	require.True(t, empty.Total.IsZero())
}

func TestNewInvoiceNumber(t *testing.T) {
	n := NewInvoiceNumber()
	require.Regexp(t, `^INV-[0-9A-F]{8}$`, n)
	require.NotEqual(t, n, NewInvoiceNumber())
}
