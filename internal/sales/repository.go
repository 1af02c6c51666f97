package sales

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockbook/stockbook/internal/inventory"
	"github.com/stockbook/stockbook/internal/platform/db"
	"github.com/stockbook/stockbook/internal/shared"
)

// Repository persists invoices in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations run inside a reservation transaction.
type TxRepository interface {
	InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	ReserveStock(ctx context.Context, key inventory.VariantKey, qty int64) (available int64, ok bool, err error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txRepo struct {
	q querier
}

// reservationTxOptions runs reservations at read committed. A conditional
// UPDATE blocked on a concurrent decrement then re-checks quantity against
// the committed row instead of failing with a serialization error.
var reservationTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// WithTx wraps callback in a read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTxOptions(ctx, r.pool, reservationTxOptions, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{q: tx})
	})
	var verr *ValidationError
	if err == nil || errors.As(err, &verr) || errors.Is(err, ErrDuplicateNumber) {
		return err
	}
	return shared.Persistence("invoice transaction", err)
}

// InsertInvoice stores an invoice outside of any explicit transaction.
func (r *Repository) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	return (&txRepo{q: r.pool}).InsertInvoice(ctx, inv)
}

func (t *txRepo) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	lines, err := json.Marshal(inv.Lines)
	if err != nil {
		return Invoice{}, err
	}
	var notes pgtype.Text
	if inv.Notes != "" {
		notes = pgtype.Text{String: inv.Notes, Valid: true}
	}
	err = t.q.QueryRow(ctx, `
INSERT INTO invoices (number, client_id, issue_date, due_date, line_items, notes, total_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at`,
		inv.Number, inv.ClientID, inv.IssueDate, inv.DueDate, string(lines), notes, db.Numeric(inv.TotalAmount),
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return Invoice{}, ErrDuplicateNumber
		}
		return Invoice{}, shared.Persistence("insert invoice", err)
	}
	return inv, nil
}

// ReserveStock decrements the variant only when enough stock remains. When it
// does not, ok is false and available holds the current quantity.
func (t *txRepo) ReserveStock(ctx context.Context, key inventory.VariantKey, qty int64) (int64, bool, error) {
	var remaining int64
	err := t.q.QueryRow(ctx, `
UPDATE product_variants
SET quantity = quantity - $3
WHERE id = (
	SELECT id FROM product_variants
	WHERE product_id = $1 AND attributes_key = $2
	ORDER BY id LIMIT 1
) AND quantity >= $3
RETURNING quantity`, key.ProductID, key.Attributes, qty).Scan(&remaining)
	if err == nil {
		return remaining, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, shared.Persistence("reserve stock", err)
	}

	var available int64
	err = t.q.QueryRow(ctx, `
SELECT quantity FROM product_variants
WHERE product_id = $1 AND attributes_key = $2
ORDER BY id LIMIT 1`, key.ProductID, key.Attributes).Scan(&available)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, shared.Persistence("reserve stock", err)
	}
	return available, false, nil
}

const selectInvoice = `
SELECT id, number, client_id, issue_date, due_date, line_items, notes, total_amount, created_at
FROM invoices`

// GetInvoice loads one invoice.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, selectInvoice+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrInvoiceNotFound
		}
		return Invoice{}, shared.Persistence("get invoice", err)
	}
	return inv, nil
}

// ListInvoices returns a client's invoices by issue date.
func (r *Repository) ListInvoices(ctx context.Context, clientID int64) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, selectInvoice+` WHERE client_id = $1 ORDER BY issue_date, id`, clientID)
	if err != nil {
		return nil, shared.Persistence("list invoices", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Invoice, error) {
		return scanInvoice(row)
	})
	if err != nil {
		return nil, shared.Persistence("list invoices", err)
	}
	return out, nil
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv   Invoice
		lines []byte
		notes pgtype.Text
		total pgtype.Numeric
	)
	err := row.Scan(&inv.ID, &inv.Number, &inv.ClientID, &inv.IssueDate, &inv.DueDate, &lines, &notes, &total, &inv.CreatedAt)
	if err != nil {
		return Invoice{}, err
	}
	if err := json.Unmarshal(lines, &inv.Lines); err != nil {
		return Invoice{}, err
	}
	inv.Notes = notes.String
	inv.TotalAmount = db.Decimal(total)
	return inv, nil
}
