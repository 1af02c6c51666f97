package ar

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockbook/stockbook/internal/clients"
	"github.com/stockbook/stockbook/internal/sales"
	"github.com/stockbook/stockbook/internal/shared"
)

var (
	// ErrClientRequired rejects payments without a client.
	ErrClientRequired = shared.InvalidInput("ar: client is required")
	// ErrInvalidAmount rejects zero or negative payments.
	ErrInvalidAmount = shared.InvalidInput("ar: amount must be positive")
	// ErrInvalidMethod rejects unknown payment methods.
	ErrInvalidMethod = shared.InvalidInput("ar: payment method must be cash, card or bank_transfer")
	// ErrPaymentDateRequired rejects payments without a date.
	ErrPaymentDateRequired = shared.InvalidInput("ar: payment date is required")
	// ErrBankAccountRequired rejects non-cash payments without a bank account.
	ErrBankAccountRequired = shared.InvalidInput("ar: bank account is required unless paying cash")
	// ErrUnknownBankAccount rejects payments into a bank account that does not exist.
	ErrUnknownBankAccount = shared.InvalidInput("ar: bank account does not exist")
)

// Method is how a payment was made.
type Method string

const (
	MethodCash         Method = "cash"
	MethodCard         Method = "card"
	MethodBankTransfer Method = "bank_transfer"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodBankTransfer:
		return true
	}
	return false
}

// Payment is money received from a client. It is not allocated to a
// particular invoice.
type Payment struct {
	ID            int64           `json:"id"`
	ClientID      int64           `json:"client_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"payment_date"`
	Method        Method          `json:"method"`
	BankAccountID *int64          `json:"bank_account_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RecordPaymentInput carries a payment to record.
type RecordPaymentInput struct {
	ClientID       int64
	Amount         decimal.Decimal
	PaymentDate    time.Time
	Method         Method
	BankAccountID  *int64
	Notes          string
	IdempotencyKey string
}

// TransactionKind tells invoices and payments apart in a ledger.
type TransactionKind string

const (
	KindInvoice TransactionKind = "invoice"
	KindPayment TransactionKind = "payment"
)

// Transaction is one ledger row. Balance is the running balance after it.
type Transaction struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
	Kind        TransactionKind `json:"kind"`
	Reference   int64           `json:"reference"`
}

// Ledger is a client's dated history of invoices and payments.
type Ledger struct {
	Transactions []Transaction   `json:"transactions"`
	TotalBilled  decimal.Decimal `json:"total_billed"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	BalanceDue   decimal.Decimal `json:"balance_due"`
}

// Statement is the data handed to the statement renderer.
type Statement struct {
	Client      clients.Client  `json:"client"`
	Invoices    []sales.Invoice `json:"invoices"`
	Payments    []Payment       `json:"payments"`
	Ledger      Ledger          `json:"ledger"`
	GeneratedAt time.Time       `json:"generated_at"`
}
