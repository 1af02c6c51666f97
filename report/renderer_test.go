package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/stockbook/stockbook/internal/ar"
	"github.com/stockbook/stockbook/internal/clients"
	"github.com/stockbook/stockbook/internal/inventory"
	"github.com/stockbook/stockbook/internal/sales"
	"github.com/stockbook/stockbook/web"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(web.Templates, language.English)
	require.NoError(t, err)
	return r
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

var acme = clients.Client{ID: 7, Name: "Acme & Sons", Phone: "555-0100", Address: "1 Main St"}

func sampleDocument() *sales.Document {
	inv := sales.Invoice{
		ID:        3,
		Number:    "INV-1A2B3C4D",
		ClientID:  acme.ID,
		IssueDate: day("2024-03-01"),
		DueDate:   day("2024-03-31"),
		Notes:     "Thanks for your business",
		Lines: []sales.InvoiceLine{{
			ProductID:   1,
			ProductName: "Shirt",
			Attributes:  inventory.Attributes{{Name: "color", Value: "Blue"}, {Name: "size", Value: "L"}},
			Quantity:    3,
			UnitPrice:   decimal.RequireFromString("1250.5"),
			UnitCost:    decimal.RequireFromString("800"),
		}},
	}
	return sales.NewDocument(inv, acme)
}

func TestMoneyFormatting(t *testing.T) {
	r := newTestRenderer(t)
	cases := map[string]string{
		"0":          "0.00",
		"12.5":       "12.50",
		"1234.567":   "1,234.57",
		"-9876543.1": "-9,876,543.10",
		"-0.001":     "0.00",
	}
	for in, want := range cases {
		require.Equal(t, want, r.Money(decimal.RequireFromString(in)), in)
	}
}

func TestRenderInvoice(t *testing.T) {
	r := newTestRenderer(t)
	html, err := r.RenderInvoice(sampleDocument())
	require.NoError(t, err)

	require.Contains(t, html, "Invoice INV-1A2B3C4D")
	require.Contains(t, html, "Acme &amp; Sons")
	require.Contains(t, html, "Blue / L")
	require.Contains(t, html, "1,250.50")
	require.Contains(t, html, "3,751.50")
	require.Contains(t, html, "01 Mar 2024")
	require.Contains(t, html, "31 Mar 2024")
	require.Contains(t, html, "Thanks for your business")
}

func TestRenderStatement(t *testing.T) {
	r := newTestRenderer(t)
	invoices := []sales.Invoice{{
		ID: 1, Number: "INV-1", ClientID: acme.ID, IssueDate: day("2024-01-01"),
		TotalAmount: decimal.NewFromInt(100),
	}}
	payments := []ar.Payment{{
		ID: 2, ClientID: acme.ID, Amount: decimal.NewFromInt(60),
		PaymentDate: day("2024-01-05"), Method: ar.MethodCash,
	}}
	st := &ar.Statement{
		Client:      acme,
		Invoices:    invoices,
		Payments:    payments,
		Ledger:      ar.BuildLedger(invoices, payments),
		GeneratedAt: day("2024-02-01"),
	}

	html, err := r.RenderStatement(st)
	require.NoError(t, err)
	require.Contains(t, html, "Invoice #INV-1")
	require.Contains(t, html, "Payment Received (cash)")
	require.Contains(t, html, "100.00")
	require.Contains(t, html, "40.00")
	require.NotContains(t, html, "No transactions.")
}

func TestRenderStatementWithoutTransactions(t *testing.T) {
	r := newTestRenderer(t)
	html, err := r.RenderStatement(&ar.Statement{Client: acme, Ledger: ar.BuildLedger(nil, nil)})
	require.NoError(t, err)
	require.Contains(t, html, "No transactions.")
}

func TestRenderNilDocuments(t *testing.T) {
	r := newTestRenderer(t)
	_, err := r.RenderInvoice(nil)
	require.Error(t, err)
	_, err = r.RenderStatement(nil)
	require.Error(t, err)
}
