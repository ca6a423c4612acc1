package product

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type postgresRepo struct {
	pool   repository.PgxPool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool repository.PgxPool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const selectProduct = `
SELECT id, name, name_zh, description, price::text, image, category, is_available, created_at
FROM products
`

func (r *postgresRepo) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, selectProduct+`WHERE is_available ORDER BY created_at DESC, id`)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	r.logger.Printf("product repo: list count=%d", len(result))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, selectProduct+`WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get id=%s not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, name, name_zh, description, price, image, category, is_available, created_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, COALESCE($9::timestamptz, now()))
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    name_zh = EXCLUDED.name_zh,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    image = EXCLUDED.image,
    category = EXCLUDED.category,
    is_available = EXCLUDED.is_available
RETURNING created_at
`
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	var createdAt *time.Time
	if !product.CreatedAt.IsZero() {
		createdAt = &product.CreatedAt
	}
	err := r.pool.QueryRow(ctx, q,
		product.ID,
		product.Name,
		product.NameZh,
		product.Description,
		product.Price.String(),
		product.Image,
		product.Category,
		product.IsAvailable,
		createdAt,
	).Scan(&product.CreatedAt)
	if err != nil {
		r.logger.Printf("product repo: upsert id=%s error=%v", product.ID, err)
		return nil, err
	}
	r.logger.Printf("product repo: upserted id=%s", product.ID)
	return &product, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.NameZh, &p.Description, &price, &p.Image, &p.Category, &p.IsAvailable, &p.CreatedAt); err != nil {
		return domain.Product{}, err
	}
	amount, err := repository.ParseDecimal(price)
	if err != nil {
		return domain.Product{}, err
	}
	p.Price = amount
	return p, nil
}
