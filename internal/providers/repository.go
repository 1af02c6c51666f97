package providers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockbook/stockbook/internal/shared"
)

// Repository persists providers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectProvider = `
SELECT id, name, company_name, phone_number, address, created_at
FROM providers`

// InsertProvider stores a provider and returns it with id and timestamp set.
func (r *Repository) InsertProvider(ctx context.Context, p Provider) (Provider, error) {
	err := r.pool.QueryRow(ctx, `
INSERT INTO providers (name, company_name, phone_number, address)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`, p.Name, company(p.CompanyName), p.Phone, p.Address).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return Provider{}, shared.Persistence("insert provider", err)
	}
	return p, nil
}

// GetProvider loads a provider by id.
func (r *Repository) GetProvider(ctx context.Context, id int64) (Provider, error) {
	p, err := scanProvider(r.pool.QueryRow(ctx, selectProvider+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Provider{}, ErrProviderNotFound
		}
		return Provider{}, shared.Persistence("get provider", err)
	}
	return p, nil
}

// ListProviders returns providers ordered by name.
func (r *Repository) ListProviders(ctx context.Context) ([]Provider, error) {
	rows, err := r.pool.Query(ctx, selectProvider+` ORDER BY name, id`)
	if err != nil {
		return nil, shared.Persistence("list providers", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Provider, error) {
		return scanProvider(row)
	})
	if err != nil {
		return nil, shared.Persistence("list providers", err)
	}
	return out, nil
}

// UpdateProvider overwrites the editable fields of a provider.
func (r *Repository) UpdateProvider(ctx context.Context, p Provider) (Provider, error) {
	err := r.pool.QueryRow(ctx, `
UPDATE providers
SET name = $2, company_name = $3, phone_number = $4, address = $5
WHERE id = $1
RETURNING created_at`, p.ID, p.Name, company(p.CompanyName), p.Phone, p.Address).Scan(&p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Provider{}, ErrProviderNotFound
		}
		return Provider{}, shared.Persistence("update provider", err)
	}
	return p, nil
}

// DeleteProvider removes a provider. Products referencing it are detached by
// the foreign key.
func (r *Repository) DeleteProvider(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM providers WHERE id = $1`, id)
	if err != nil {
		return shared.Persistence("delete provider", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProviderNotFound
	}
	return nil
}

func company(name string) pgtype.Text {
	return pgtype.Text{String: name, Valid: name != ""}
}

func scanProvider(row pgx.Row) (Provider, error) {
	var (
		p    Provider
		comp pgtype.Text
	)
	if err := row.Scan(&p.ID, &p.Name, &comp, &p.Phone, &p.Address, &p.CreatedAt); err != nil {
		return Provider{}, err
	}
	p.CompanyName = comp.String
	return p, nil
}
