package product

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// ListAvailable returns products that can be ordered, newest first.
	ListAvailable(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// Upsert inserts or replaces a product by id. An empty id is assigned.
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
