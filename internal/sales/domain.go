package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockbook/stockbook/internal/clients"
	"github.com/stockbook/stockbook/internal/inventory"
	"github.com/stockbook/stockbook/internal/shared"
)

// MaxLineQuantity bounds the quantity of a single line item.
const MaxLineQuantity int64 = 1_000_000_000

var (
	// ErrMissingSelection rejects lines without a product or variant, and
	// invoices without lines.
	ErrMissingSelection = shared.InvalidInput("sales: missing product or variant selection")
	// ErrInvalidQuantity rejects lines with a quantity outside 1..MaxLineQuantity.
	ErrInvalidQuantity = shared.InvalidInput("sales: invalid line quantity")
	// ErrPriceBelowCost rejects a unit price at or below the variant cost.
	ErrPriceBelowCost = shared.InvalidInput("sales: price below cost")
	// ErrInsufficientStock rejects a variant requested beyond its stock.
	ErrInsufficientStock = shared.InvalidInput("sales: insufficient stock")

	// ErrClientRequired rejects invoices without a client.
	ErrClientRequired = shared.InvalidInput("sales: client is required")
	// ErrDueDateRequired rejects invoices without a due date.
	ErrDueDateRequired = shared.InvalidInput("sales: due date is required")
	// ErrDueBeforeIssue rejects due dates earlier than the issue date.
	ErrDueBeforeIssue = shared.InvalidInput("sales: due date cannot be before issue date")
	// ErrInvoiceNotFound indicates the invoice id is unknown.
	ErrInvoiceNotFound = shared.NotFound("sales: invoice not found")
	// ErrDuplicateNumber indicates the invoice number is already taken.
	ErrDuplicateNumber = shared.Conflict("sales: invoice number already exists")
)

// RequestedLine is a line item as entered, before validation. Variant is a
// copy of the variant taken when it was selected.
type RequestedLine struct {
	ProductID int64
	Variant   *inventory.Variant
	Quantity  int64
	UnitPrice decimal.Decimal
}

// InvoiceLine is a finalized line item frozen at save time.
type InvoiceLine struct {
	ProductID   int64                `json:"product_id"`
	ProductName string               `json:"product_name"`
	Attributes  inventory.Attributes `json:"attributes"`
	Quantity    int64                `json:"quantity"`
	UnitPrice   decimal.Decimal      `json:"unit_price"`
	UnitCost    decimal.Decimal      `json:"unit_cost"`
}

// Amount is quantity times unit price.
func (l InvoiceLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Invoice is a persisted invoice.
type Invoice struct {
	ID          int64           `json:"id"`
	Number      string          `json:"number"`
	ClientID    int64           `json:"client_id"`
	IssueDate   time.Time       `json:"issue_date"`
	DueDate     time.Time       `json:"due_date"`
	Lines       []InvoiceLine   `json:"line_items"`
	Notes       string          `json:"notes,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Totals holds invoice sums. Subtotal and Total are equal while no tax or
// discount applies.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

// LineInput is a requested line as received from a caller. A nil UnitPrice
// takes the selected variant's selling price.
type LineInput struct {
	ProductID  int64                `json:"product_id"`
	Attributes inventory.Attributes `json:"attributes"`
	Quantity   int64                `json:"quantity" validate:"max=1000000000"`
	UnitPrice  *decimal.Decimal     `json:"unit_price,omitempty"`
}

// CreateInvoiceInput carries an invoice creation request.
type CreateInvoiceInput struct {
	ClientID       int64
	Number         string
	IssueDate      time.Time
	DueDate        time.Time
	Notes          string
	Lines          []LineInput
	IdempotencyKey string
}

// DocumentLine is one rendered line item.
type DocumentLine struct {
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Amount      decimal.Decimal `json:"amount"`
}

// Document is the data handed to the invoice renderer.
type Document struct {
	InvoiceNumber string          `json:"invoice_number"`
	Client        clients.Client  `json:"client"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	LineItems     []DocumentLine  `json:"line_items"`
	Notes         string          `json:"notes,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Total         decimal.Decimal `json:"total"`
}
