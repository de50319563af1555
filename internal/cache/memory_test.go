package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	require.NoError(t, store.Set(ctx, "orders:1", []byte(`{"id":1}`), 0))

	got, err := store.Get(ctx, "orders:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(got))

	require.NoError(t, store.Delete(ctx, "orders:1"))
	_, err = store.Get(ctx, "orders:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "job", []byte("x"), time.Hour))

	now = now.Add(59 * time.Minute)
	_, err := store.Get(ctx, "job")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "job")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryStoreRejectsEmptyKey(t *testing.T) {
	store := NewMemoryStore(0)
	assert.Error(t, store.Set(context.Background(), "", nil, 0))
	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryStoreKeepsValueRefreshedDuringEviction(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Set(ctx, "job", []byte("old"), time.Second))
	clock = clock.Add(2 * time.Second)

	// a writer refreshes the key after Get has read the stale entry
	refreshed := false
	store.now = func() time.Time {
		if !refreshed {
			refreshed = true
			require.NoError(t, store.Set(ctx, "job", []byte("new"), time.Minute))
		}
		return clock
	}

	got, err := store.Get(ctx, "job")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	got, err = store.Get(ctx, "job")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestMemoryStoreSweepsExpiredEntriesOnWrite(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return clock }

	for i := range sweepInterval - 1 {
		require.NoError(t, store.Set(ctx, fmt.Sprintf("orders:%d", i), []byte("x"), time.Second))
	}
	assert.Equal(t, sweepInterval-1, store.Len())

	clock = clock.Add(time.Minute)
	require.NoError(t, store.Set(ctx, "fresh", []byte("y"), time.Hour))

	assert.Equal(t, 1, store.Len())
}
