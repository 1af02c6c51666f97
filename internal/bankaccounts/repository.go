package bankaccounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockbook/stockbook/internal/shared"
)

// Repository persists bank accounts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertBankAccount stores an account and returns it with id and timestamp set.
func (r *Repository) InsertBankAccount(ctx context.Context, a BankAccount) (BankAccount, error) {
	err := r.pool.QueryRow(ctx, `
INSERT INTO bank_accounts (nickname, bank_name, account_holder_name, account_number)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`, a.Nickname, a.BankName, a.AccountHolderName, a.AccountNumber).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return BankAccount{}, shared.Persistence("insert bank account", err)
	}
	return a, nil
}

// GetBankAccount loads an account by id.
func (r *Repository) GetBankAccount(ctx context.Context, id int64) (BankAccount, error) {
	var a BankAccount
	err := r.pool.QueryRow(ctx, `
SELECT id, nickname, bank_name, account_holder_name, account_number, created_at
FROM bank_accounts WHERE id = $1`, id).Scan(&a.ID, &a.Nickname, &a.BankName, &a.AccountHolderName, &a.AccountNumber, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankAccount{}, ErrBankAccountNotFound
		}
		return BankAccount{}, shared.Persistence("get bank account", err)
	}
	return a, nil
}

// ListBankAccounts returns accounts ordered by nickname.
func (r *Repository) ListBankAccounts(ctx context.Context) ([]BankAccount, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, nickname, bank_name, account_holder_name, account_number, created_at
FROM bank_accounts ORDER BY nickname, id`)
	if err != nil {
		return nil, shared.Persistence("list bank accounts", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[BankAccount])
	if err != nil {
		return nil, shared.Persistence("list bank accounts", err)
	}
	return out, nil
}

// UpdateBankAccount overwrites the editable fields of an account.
func (r *Repository) UpdateBankAccount(ctx context.Context, a BankAccount) (BankAccount, error) {
	err := r.pool.QueryRow(ctx, `
UPDATE bank_accounts
SET nickname = $2, bank_name = $3, account_holder_name = $4, account_number = $5
WHERE id = $1
RETURNING created_at`, a.ID, a.Nickname, a.BankName, a.AccountHolderName, a.AccountNumber).Scan(&a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankAccount{}, ErrBankAccountNotFound
		}
		return BankAccount{}, shared.Persistence("update bank account", err)
	}
	return a, nil
}

// DeleteBankAccount removes an account. Payments restrict the delete.
func (r *Repository) DeleteBankAccount(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bank_accounts WHERE id = $1`, id)
	if err != nil {
		if shared.IsForeignKeyViolation(err) {
			return ErrBankAccountInUse
		}
		return shared.Persistence("delete bank account", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBankAccountNotFound
	}
	return nil
}
