package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisStore(t *testing.T) (*RedisRunStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisRunStoreWithClient(client, "test:")
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisRunStore_Pages(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "run-1")
	assert.ErrorIs(t, err, integration.ErrStashMiss)

	require.NoError(t, store.Save(ctx, "run-1", samplePage(), time.Hour))
	assert.True(t, mr.Exists("test:run-1:page"))
	assert.Equal(t, time.Hour, mr.TTL("test:run-1:page"))

	page, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, page.Items, 4)
	assert.Equal(t, integration.ItemKindPack, page.Items[2].Kind())

	mr.FastForward(2 * time.Hour)
	_, err = store.Load(ctx, "run-1")
	assert.ErrorIs(t, err, integration.ErrStashMiss)

	require.NoError(t, store.Save(ctx, "run-1", samplePage(), time.Hour))
	require.NoError(t, store.Delete(ctx, "run-1"))
	assert.False(t, mr.Exists("test:run-1:page"))
}

func TestRedisRunStore_ErrorLog(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	first := integration.ErrorReport{RemoteItemID: "a", Name: "A", SKU: "SKU-A", Message: "missing sku"}
	second := integration.ErrorReport{RemoteItemID: "b", Message: "unsupported kind"}
	require.NoError(t, store.Append(ctx, "run-1", first, time.Hour))
	require.NoError(t, store.Append(ctx, "run-1", second, time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("test:run-1:errors"))

	reports, err := store.Drain(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []integration.ErrorReport{first, second}, reports)
	assert.False(t, mr.Exists("test:run-1:errors"))

	reports, err = store.Drain(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestNewRunStore(t *testing.T) {
	t.Run("memory when redis is not configured", func(t *testing.T) {
		store, err := NewRunStore(RedisConfig{}, false, zap.NewNop())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryRunStore{}, store)
	})

	t.Run("redis when reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		store, err := NewRunStore(RedisConfig{Addr: mr.Addr()}, false, zap.NewNop())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &RedisRunStore{}, store)
	})

	t.Run("fallback when unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRunStore(RedisConfig{Addr: addr}, false, zap.NewNop())
		assert.Error(t, err)

		store, err := NewRunStore(RedisConfig{Addr: addr}, true, zap.NewNop())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryRunStore{}, store)
	})
}
