package product

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type sqliteRepo struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLite returns a Repository backed by SQLite.
func NewSQLite(db *sql.DB, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &sqliteRepo{db: db, logger: logger}
}

const selectSQLiteProduct = `
SELECT id, name, name_zh, description, price, image, category, is_available, created_at
FROM products
`

func (r *sqliteRepo) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, selectSQLiteProduct+`WHERE is_available = 1 ORDER BY created_at DESC, id`)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanSQLiteProduct(rows)
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

func (r *sqliteRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanSQLiteProduct(r.db.QueryRowContext(ctx, selectSQLiteProduct+`WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Printf("product repo: get id=%s not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return &p, nil
}

func (r *sqliteRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, name, name_zh, description, price, image, category, is_available, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    name_zh = excluded.name_zh,
    description = excluded.description,
    price = excluded.price,
    image = excluded.image,
    category = excluded.category,
    is_available = excluded.is_available
RETURNING created_at
`
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	var createdAt string
	err := r.db.QueryRowContext(ctx, q,
		product.ID,
		product.Name,
		product.NameZh,
		product.Description,
		product.Price.String(),
		product.Image,
		product.Category,
		product.IsAvailable,
		repository.FormatTime(product.CreatedAt),
	).Scan(&createdAt)
	if err != nil {
		r.logger.Printf("product repo: upsert id=%s error=%v", product.ID, err)
		return nil, err
	}
	if product.CreatedAt, err = repository.ParseTime(createdAt); err != nil {
		return nil, err
	}
	r.logger.Printf("product repo: upserted id=%s", product.ID)
	return &product, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteProduct(row rowScanner) (domain.Product, error) {
	var (
		p                domain.Product
		price, createdAt string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.NameZh, &p.Description, &price, &p.Image, &p.Category, &p.IsAvailable, &createdAt); err != nil {
		return domain.Product{}, err
	}
	var err error
	if p.Price, err = repository.ParseDecimal(price); err != nil {
		return domain.Product{}, err
	}
	if p.CreatedAt, err = repository.ParseTime(createdAt); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}
