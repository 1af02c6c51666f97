package bankaccounts

import (
	"time"

	"github.com/stockbook/stockbook/internal/shared"
)

var (
	// ErrBankAccountNotFound indicates the bank account id is unknown.
	ErrBankAccountNotFound = shared.NotFound("bankaccounts: bank account not found")
	// ErrFieldsRequired rejects accounts missing any of their details.
	ErrFieldsRequired = shared.InvalidInput("bankaccounts: nickname, bank name, holder name and account number are required")
	// ErrBankAccountInUse rejects deleting an account that payments reference.
	ErrBankAccountInUse = shared.Conflict("bankaccounts: bank account has recorded payments")
)

// BankAccount is an account of the business that receives non-cash payments.
type BankAccount struct {
	ID                int64     `json:"id"`
	Nickname          string    `json:"nickname"`
	BankName          string    `json:"bank_name"`
	AccountHolderName string    `json:"account_holder_name"`
	AccountNumber     string    `json:"account_number"`
	CreatedAt         time.Time `json:"created_at"`
}

// BankAccountInput captures a new or edited bank account.
type BankAccountInput struct {
	Nickname          string `json:"nickname" validate:"required,max=100"`
	BankName          string `json:"bank_name" validate:"required,max=200"`
	AccountHolderName string `json:"account_holder_name" validate:"required,max=200"`
	AccountNumber     string `json:"account_number" validate:"required,max=64"`
}
