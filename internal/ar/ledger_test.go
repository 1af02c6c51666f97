package ar

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockbook/stockbook/internal/sales"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuildLedgerRunningBalance(t *testing.T) {
	invoices := []sales.Invoice{{ID: 1, Number: "INV-1", IssueDate: day("2024-01-01"), TotalAmount: amount("100")}}
	payments := []Payment{{ID: 9, PaymentDate: day("2024-01-05"), Method: MethodCash, Amount: amount("40")}}

	ledger := BuildLedger(invoices, payments)

	require.Len(t, ledger.Transactions, 2)
	first, second := ledger.Transactions[0], ledger.Transactions[1]
	require.Equal(t, "Invoice #INV-1", first.Description)
	require.Equal(t, KindInvoice, first.Kind)
	require.True(t, amount("100").Equal(first.Debit))
	require.True(t, first.Credit.IsZero())
	require.True(t, amount("100").Equal(first.Balance))

	require.Equal(t, "Payment Received (cash)", second.Description)
	require.Equal(t, int64(9), second.Reference)
	require.True(t, amount("40").Equal(second.Credit))
	require.True(t, amount("60").Equal(second.Balance))

	require.True(t, amount("100").Equal(ledger.TotalBilled))
	require.True(t, amount("40").Equal(ledger.TotalPaid))
	require.True(t, amount("60").Equal(ledger.BalanceDue))
}

func TestBuildLedgerEmpty(t *testing.T) {
	ledger := BuildLedger(nil, nil)

	require.NotNil(t, ledger.Transactions)
	require.Empty(t, ledger.Transactions)
	require.True(t, ledger.TotalBilled.IsZero())
	require.True(t, ledger.TotalPaid.IsZero())
	require.True(t, ledger.BalanceDue.IsZero())
}

func TestBuildLedgerSortsByDateWithInvoicesFirstOnTies(t *testing.T) {
	invoices := []sales.Invoice{
		{ID: 1, Number: "A", IssueDate: day("2024-02-01"), TotalAmount: amount("50")},
		{ID: 2, Number: "B", IssueDate: day("2024-01-10"), TotalAmount: amount("30")},
		{ID: 3, Number: "C", IssueDate: day("2024-02-01"), TotalAmount: amount("20")},
	}
	payments := []Payment{
		{ID: 7, PaymentDate: day("2024-02-01"), Method: MethodBankTransfer, Amount: amount("25")},
		{ID: 8, PaymentDate: day("2024-01-10"), Method: MethodCard, Amount: amount("30")},
	}

	ledger := BuildLedger(invoices, payments)

	var got []string
	var balances []string
	for _, tx := range ledger.Transactions {
		got = append(got, tx.Description)
		balances = append(balances, tx.Balance.String())
	}
	require.Equal(t, []string{
		"Invoice #B",
		"Payment Received (card)",
		"Invoice #A",
		"Invoice #C",
		"Payment Received (bank_transfer)",
	}, got)
	require.Equal(t, []string{"30", "0", "50", "70", "45"}, balances)
	require.True(t, amount("45").Equal(ledger.BalanceDue))
}

func TestBuildLedgerDoesNotRound(t *testing.T) {
	invoices := []sales.Invoice{
		{Number: "X", IssueDate: day("2024-01-01"), TotalAmount: amount("0.10")},
		{Number: "Y", IssueDate: day("2024-01-01"), TotalAmount: amount("0.20")},
	}
	ledger := BuildLedger(invoices, nil)
	require.Equal(t, "0.3", ledger.TotalBilled.String())
	require.True(t, amount("0.3").Equal(ledger.Transactions[1].Balance))
}
