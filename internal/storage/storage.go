// Package storage opens the configured database provider and exposes the
// repositories built on it.
package storage

import (
	"context"
	"fmt"
	"log"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/migrate"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
)

type Store struct {
	Provider string
	Products productrepo.Repository
	Orders   orderrepo.Repository

	ping    func(ctx context.Context) error
	migrate func(ctx context.Context) error
	close   func()
}

// Open connects to provider ("postgres" or "sqlite") at dsn.
func Open(ctx context.Context, provider, dsn string, logger *log.Logger) (*Store, error) {
	switch provider {
	case config.ProviderPostgres:
		pool, err := db.Connect(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &Store{
			Provider: provider,
			Products: productrepo.NewPostgres(pool, logger),
			Orders:   orderrepo.NewPostgres(pool, logger),
			ping:     pool.Ping,
			migrate:  func(ctx context.Context) error { return migrate.Apply(ctx, pool) },
			close:    pool.Close,
		}, nil
	case config.ProviderSQLite:
		sqlDB, err := db.OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &Store{
			Provider: provider,
			Products: productrepo.NewSQLite(sqlDB, logger),
			Orders:   orderrepo.NewSQLite(sqlDB, logger),
			ping:     sqlDB.PingContext,
			migrate:  func(ctx context.Context) error { return migrate.ApplySQLite(ctx, sqlDB) },
			close:    func() { sqlDB.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown db provider %q", provider)
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Migrate applies the embedded migrations for the store's provider.
func (s *Store) Migrate(ctx context.Context) error {
	return s.migrate(ctx)
}

func (s *Store) Close() {
	s.close()
}
