package ar

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockbook/stockbook/internal/platform/db"
	"github.com/stockbook/stockbook/internal/shared"
)

// Repository persists payments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertPayment stores a payment and returns it with id and timestamp set.
func (r *Repository) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	var bank pgtype.Int8
	if p.BankAccountID != nil {
		bank = pgtype.Int8{Int64: *p.BankAccountID, Valid: true}
	}
	var notes pgtype.Text
	if p.Notes != "" {
		notes = pgtype.Text{String: p.Notes, Valid: true}
	}
	err := r.pool.QueryRow(ctx, `
INSERT INTO payments (client_id, amount_paid, payment_date, payment_method, bank_account_id, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at`,
		p.ClientID, db.Numeric(p.Amount), p.PaymentDate, string(p.Method), bank, notes,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if shared.IsForeignKeyViolation(err) && p.BankAccountID != nil {
			return Payment{}, ErrUnknownBankAccount
		}
		return Payment{}, shared.Persistence("insert payment", err)
	}
	return p, nil
}

// ListPayments returns a client's payments by payment date.
func (r *Repository) ListPayments(ctx context.Context, clientID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, client_id, amount_paid, payment_date, payment_method, bank_account_id, notes, created_at
FROM payments
WHERE client_id = $1
ORDER BY payment_date, id`, clientID)
	if err != nil {
		return nil, shared.Persistence("list payments", err)
	}
	out, err := pgx.CollectRows(rows, scanPayment)
	if err != nil {
		return nil, shared.Persistence("list payments", err)
	}
	return out, nil
}

func scanPayment(row pgx.CollectableRow) (Payment, error) {
	var (
		p      Payment
		amount pgtype.Numeric
		method string
		bank   pgtype.Int8
		notes  pgtype.Text
	)
	if err := row.Scan(&p.ID, &p.ClientID, &amount, &p.PaymentDate, &method, &bank, &notes, &p.CreatedAt); err != nil {
		return Payment{}, err
	}
	p.Amount = db.Decimal(amount)
	p.Method = Method(method)
	if bank.Valid {
		id := bank.Int64
		p.BankAccountID = &id
	}
	p.Notes = notes.String
	return p, nil
}
