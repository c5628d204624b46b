package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/deppfellow/genoportal/internal/query"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() Result {
	return Result{
		ID:         uuid.NewString(),
		SearchType: "gene",
		Title:      "Search Results (AD, Microglia)",
		Criteria: query.Criteria{
			Condition:  "AD",
			CellType:   "Microglia",
			GeneFields: []string{query.GeneFieldHGNC},
		},
		Total:     6,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	r := sampleResult()
	require.NoError(t, store.Save(ctx, r, time.Hour))

	got, err := store.Load(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	now = now.Add(time.Hour)
	_, err = store.Load(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound, "entries expire after their ttl")

	assert.NoError(t, store.Ping(ctx))
}

func TestMemoryStore_EvictsOnSave(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, sampleResult(), time.Minute))
	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Save(ctx, sampleResult(), time.Minute))

	assert.Len(t, store.entries, 1)
}

// TestRedisStore needs a reachable server, e.g.
// GENOPORTAL_TEST_REDIS_ADDR=localhost:6379 go test ./internal/lib/session/...
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("GENOPORTAL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GENOPORTAL_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client)
	require.NoError(t, store.Ping(ctx))

	r := sampleResult()
	require.NoError(t, store.Save(ctx, r, time.Minute))
	t.Cleanup(func() { client.Del(ctx, keyPrefix+r.ID) })

	got, err := store.Load(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	ttl, err := client.TTL(ctx, keyPrefix+r.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	_, err = store.Load(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
