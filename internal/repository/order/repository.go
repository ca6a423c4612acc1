package order

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// Repository persists orders together with their line items.
type Repository interface {
	// Create stores the order and all of its items atomically. Missing ids
	// and creation time are filled in. A taken order number yields
	// domain.ErrAlreadyExists and nothing is written.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns every order with items, newest first.
	List(ctx context.Context) ([]domain.Order, error)
}

func prepare(order *domain.Order, newID func() string, now func() time.Time) {
	if order.ID == "" {
		order.ID = newID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now().UTC()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = newID()
		}
		order.Items[i].OrderID = order.ID
	}
}
