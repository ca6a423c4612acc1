package product

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/migrate"
)

func newSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(ctx, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, migrate.ApplySQLite(ctx, sqlDB))
	return sqlDB
}

func TestSQLite_UpsertListAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLite(newSQLiteDB(t), nil)

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	_, err := repo.Upsert(ctx, domain.Product{ID: "p-old", Name: "Toast", Price: decimal.RequireFromString("3.50"), IsAvailable: true, CreatedAt: base})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, domain.Product{ID: "p-new", Name: "Congee", NameZh: "粥", Price: decimal.RequireFromString("6"), IsAvailable: true, CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, domain.Product{ID: "p-off", Name: "Soup", Price: decimal.RequireFromString("4"), IsAvailable: false, CreatedAt: base.Add(2 * time.Hour)})
	require.NoError(t, err)

	list, err := repo.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p-new", list[0].ID)
	assert.Equal(t, "p-old", list[1].ID)
	assert.True(t, list[1].Price.Equal(decimal.RequireFromString("3.5")))

	got, err := repo.GetByID(ctx, "p-new")
	require.NoError(t, err)
	assert.Equal(t, "粥", got.NameZh)
	assert.True(t, got.CreatedAt.Equal(base.Add(time.Hour)))
}

func TestSQLite_UpsertUpdatesAndKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLite(newSQLiteDB(t), nil)

	first, err := repo.Upsert(ctx, domain.Product{ID: "p1", Name: "Toast", Price: decimal.RequireFromString("3"), IsAvailable: true})
	require.NoError(t, err)

	updated, err := repo.Upsert(ctx, domain.Product{ID: "p1", Name: "French toast", Price: decimal.RequireFromString("4.25"), IsAvailable: true, CreatedAt: first.CreatedAt.Add(time.Hour)})
	require.NoError(t, err)
	assert.True(t, updated.CreatedAt.Equal(first.CreatedAt))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "French toast", got.Name)
	assert.Equal(t, "4.25", got.Price.StringFixed(2))
}

func TestSQLite_UpsertAssignsID(t *testing.T) {
	repo := NewSQLite(newSQLiteDB(t), nil)
	p, err := repo.Upsert(context.Background(), domain.Product{Name: "Tea", Price: decimal.NewFromInt(2)})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
}

func TestSQLite_GetMissing(t *testing.T) {
	repo := NewSQLite(newSQLiteDB(t), nil)
	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
