package inventory

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockbook/stockbook/internal/platform/db"
	"github.com/stockbook/stockbook/internal/shared"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectVariants = `
SELECT id, product_id, attributes, quantity, cost_price, selling_price
FROM product_variants`

// ListProducts returns every product with its variants ordered by id.
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, provider_id, created_at FROM products ORDER BY id`)
	if err != nil {
		return nil, shared.Persistence("list products", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, shared.Persistence("list products", err)
	}

	rows, err = r.pool.Query(ctx, selectVariants+` ORDER BY product_id, id`)
	if err != nil {
		return nil, shared.Persistence("list variants", err)
	}
	defer rows.Close()

	index := make(map[int64]int, len(products))
	for i, p := range products {
		index[p.ID] = i
	}
	for rows.Next() {
		productID, variant, err := scanVariant(rows)
		if err != nil {
			return nil, shared.Persistence("list variants", err)
		}
		if i, ok := index[productID]; ok {
			products[i].Variants = append(products[i].Variants, variant)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Persistence("list variants", err)
	}
	return products, nil
}

// GetProduct loads a single product with its variants.
func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, provider_id, created_at FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, shared.Persistence("get product", err)
	}

	rows, err := r.pool.Query(ctx, selectVariants+` WHERE product_id = $1 ORDER BY id`, id)
	if err != nil {
		return Product{}, shared.Persistence("get product variants", err)
	}
	defer rows.Close()
	for rows.Next() {
		_, variant, err := scanVariant(rows)
		if err != nil {
			return Product{}, shared.Persistence("get product variants", err)
		}
		product.Variants = append(product.Variants, variant)
	}
	if err := rows.Err(); err != nil {
		return Product{}, shared.Persistence("get product variants", err)
	}
	return product, nil
}

// GetVariantStock returns the stored quantity of the variant matching attrs.
func (r *Repository) GetVariantStock(ctx context.Context, productID int64, attrs Attributes) (int64, error) {
	var qty int64
	err := r.pool.QueryRow(ctx, `
SELECT quantity FROM product_variants
WHERE product_id = $1 AND attributes_key = $2
ORDER BY id LIMIT 1`, productID, attrs.Canonical()).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrVariantNotFound
		}
		return 0, shared.Persistence("get variant stock", err)
	}
	return qty, nil
}

// CreateProduct inserts the product and its variants in one transaction.
func (r *Repository) CreateProduct(ctx context.Context, product Product) (Product, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var provider pgtype.Int8
		if product.ProviderID != 0 {
			provider = pgtype.Int8{Int64: product.ProviderID, Valid: true}
		}
		err := tx.QueryRow(ctx, `
INSERT INTO products (name, provider_id)
VALUES ($1, $2)
RETURNING id, created_at`, product.Name, provider).Scan(&product.ID, &product.CreatedAt)
		if err != nil {
			return err
		}
		for i := range product.Variants {
			v := &product.Variants[i]
			attrs, err := json.Marshal(v.Attributes)
			if err != nil {
				return err
			}
			err = tx.QueryRow(ctx, `
INSERT INTO product_variants (product_id, attributes, attributes_key, quantity, cost_price, selling_price)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`, product.ID, string(attrs), v.Attributes.Canonical(), v.Quantity,
				db.Numeric(v.CostPrice), db.Numeric(v.SellingPrice)).Scan(&v.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if shared.IsForeignKeyViolation(err) {
			return Product{}, ErrUnknownProvider
		}
		return Product{}, shared.Persistence("create product", err)
	}
	return product, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p        Product
		provider pgtype.Int8
	)
	if err := row.Scan(&p.ID, &p.Name, &provider, &p.CreatedAt); err != nil {
		return Product{}, err
	}
	p.ProviderID = provider.Int64
	return p, nil
}

func scanVariant(row pgx.Row) (int64, Variant, error) {
	var (
		productID     int64
		v             Variant
		attrs         []byte
		cost, selling pgtype.Numeric
	)
	if err := row.Scan(&v.ID, &productID, &attrs, &v.Quantity, &cost, &selling); err != nil {
		return 0, Variant{}, err
	}
	if err := json.Unmarshal(attrs, &v.Attributes); err != nil {
		return 0, Variant{}, err
	}
	v.CostPrice = db.Decimal(cost)
	v.SellingPrice = db.Decimal(selling)
	return productID, v, nil
}
