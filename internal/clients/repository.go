package clients

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockbook/stockbook/internal/shared"
)

// Repository persists clients in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertClient stores a client and returns it with id and timestamp set.
func (r *Repository) InsertClient(ctx context.Context, c Client) (Client, error) {
	err := r.pool.QueryRow(ctx, `
INSERT INTO clients (name, phone, address)
VALUES ($1, $2, $3)
RETURNING id, created_at`, c.Name, c.Phone, c.Address).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return Client{}, shared.Persistence("insert client", err)
	}
	return c, nil
}

// GetClient loads a client by id.
func (r *Repository) GetClient(ctx context.Context, id int64) (Client, error) {
	var c Client
	err := r.pool.QueryRow(ctx, `
SELECT id, name, phone, address, created_at
FROM clients WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrClientNotFound
		}
		return Client{}, shared.Persistence("get client", err)
	}
	return c, nil
}

// ListClients returns clients ordered by name.
func (r *Repository) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, name, phone, address, created_at
FROM clients ORDER BY name, id`)
	if err != nil {
		return nil, shared.Persistence("list clients", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Client])
	if err != nil {
		return nil, shared.Persistence("list clients", err)
	}
	return out, nil
}
