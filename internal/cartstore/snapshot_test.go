package cartstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSnapshotterMissingFile(t *testing.T) {
	f := NewFileSnapshotter(filepath.Join(t.TempDir(), "cart.json"))
	_, err := f.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestFileSnapshotterRoundTripThroughStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cart.json")
	ctx := context.Background()

	s := Open(ctx, NewFileSnapshotter(path), nil)
	s.AddItem(ProductInput{ID: "p1", Name: "Toast", Price: price("3.50"), Quantity: 2, Notes: "no butter"})

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "["))
	assert.Contains(t, string(raw), `"price":3.5`)
	assert.Contains(t, string(raw), `"notes":"no butter"`)

	reopened := Open(ctx, NewFileSnapshotter(path), nil)
	items := reopened.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, reopened.Total().Equal(price("7")))
}

func TestFileSnapshotterCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileSnapshotter(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)

	s := Open(context.Background(), NewFileSnapshotter(path), nil)
	assert.Empty(t, s.Items())
}

func TestFileSnapshotterMissingNotesDecodeEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"p1","name":"Toast","price":"3.5","quantity":1}]`), 0o644))

	items, err := NewFileSnapshotter(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "", items[0].Notes)
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisSnapshotterMissingKey(t *testing.T) {
	client, _ := setupTestRedis(t)
	_, err := NewRedisSnapshotter(client, "kiosk-1", 0).Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestRedisSnapshotterSaveAndLoad(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	snap := NewRedisSnapshotter(client, "kiosk-1", time.Hour)

	s := Open(ctx, snap, nil)
	s.AddItem(ProductInput{ID: "p1", Name: "Toast", Price: price("3.50")})

	assert.True(t, mr.Exists("cart:kiosk-1"))
	assert.Equal(t, time.Hour, mr.TTL("cart:kiosk-1"))

	items, err := snap.Load(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ID)
}

func TestRedisSnapshotterCorruptValue(t *testing.T) {
	client, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:kiosk-1", "garbage"))

	s := Open(context.Background(), NewRedisSnapshotter(client, "kiosk-1", 0), nil)
	assert.Empty(t, s.Items())
}

func TestRedisSnapshotterUnavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	s := Open(context.Background(), NewRedisSnapshotter(client, "kiosk-1", 0), nil)
	s.AddItem(ProductInput{ID: "p1", Price: price("1")})
	assert.Len(t, s.Items(), 1)
}
