package product

import (
	"context"

	"golang.org/x/sync/singleflight"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo    productrepo.Repository
	catalog singleflight.Group
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// List returns the orderable catalog, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := s.catalog.Do("available", func() (interface{}, error) {
		return s.repo.ListAvailable(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}
