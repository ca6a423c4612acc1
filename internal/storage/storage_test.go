package storage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "sqlite", "file::memory:", nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Migrate(ctx))

	_, err = s.Products.Upsert(ctx, domain.Product{ID: "p1", Name: "Toast", Price: decimal.NewFromInt(3), IsAvailable: true})
	require.NoError(t, err)

	list, err := s.Products.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	orders, err := s.Orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOpenUnknownProvider(t *testing.T) {
	_, err := Open(context.Background(), "sqlserver", "x", nil)
	assert.ErrorContains(t, err, "unknown db provider")
}
