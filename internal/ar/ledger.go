package ar

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/stockbook/stockbook/internal/sales"
)

// BuildLedger merges invoices (debits) and payments (credits) into one list
// sorted by date and attaches a running balance. Same-day entries keep their
// input order with invoices ahead of payments. Totals are summed from the
// inputs, not read off the last running balance.
func BuildLedger(invoices []sales.Invoice, payments []Payment) Ledger {
	txs := make([]Transaction, 0, len(invoices)+len(payments))
	billed := decimal.Zero
	paid := decimal.Zero

	for _, inv := range invoices {
		txs = append(txs, Transaction{
			Date:        inv.IssueDate,
			Description: "Invoice #" + inv.Number,
			Debit:       inv.TotalAmount,
			Credit:      decimal.Zero,
			Kind:        KindInvoice,
			Reference:   inv.ID,
		})
		billed = billed.Add(inv.TotalAmount)
	}
	for _, p := range payments {
		txs = append(txs, Transaction{
			Date:        p.PaymentDate,
			Description: "Payment Received (" + string(p.Method) + ")",
			Debit:       decimal.Zero,
			Credit:      p.Amount,
			Kind:        KindPayment,
			Reference:   p.ID,
		})
		paid = paid.Add(p.Amount)
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})

	running := decimal.Zero
	for i := range txs {
		running = running.Add(txs[i].Debit).Sub(txs[i].Credit)
		txs[i].Balance = running
	}

	return Ledger{
		Transactions: txs,
		TotalBilled:  billed,
		TotalPaid:    paid,
		BalanceDue:   billed.Sub(paid),
	}
}
