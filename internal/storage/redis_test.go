package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, "w:s1:conversations", []byte("[]")))
	v, err := store.Get(ctx, "w:s1:conversations")
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
	assert.Equal(t, time.Hour, mr.TTL("w:s1:conversations"))

	require.NoError(t, store.Delete(ctx, "w:s1:conversations"))
	_, err = store.Get(ctx, "w:s1:conversations")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisStore_KeysEscapesPrefix(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, "w:s*1:a", []byte("1")))
	require.NoError(t, store.Set(ctx, "w:s11:a", []byte("2")))

	keys, err := store.Keys(ctx, "w:s*1:")
	require.NoError(t, err)
	assert.Equal(t, []string{"w:s*1:a"}, keys)
}

func TestGlobEscape(t *testing.T) {
	assert.Equal(t, `a\*b\?c\[d\]`, globEscape("a*b?c[d]"))
}
