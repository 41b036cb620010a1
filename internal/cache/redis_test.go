package cache

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
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	s.Set(ctx, "k1", []byte("v1"), TTLLogs)
	got, ok := s.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	_, ok = s.Get(ctx, "absent")
	assert.False(t, ok)
}

func TestRedisStoreKeysAreNamespaced(t *testing.T) {
	s, mr := newTestRedisStore(t)
	s.Set(context.Background(), "k1", []byte("v1"), TTLLogs)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, redisKeyPrefix+"k1", keys[0])
}

func TestRedisStoreExpiry(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	s.Set(ctx, "k1", []byte("v1"), 30*time.Second)
	mr.FastForward(31 * time.Second)

	_, ok := s.Get(ctx, "k1")
	assert.False(t, ok)
}

func TestRedisStoreErrorDegradesToMiss(t *testing.T) {
	s, mr := newTestRedisStore(t)
	mr.Close()

	_, ok := s.Get(context.Background(), "k1")
	assert.False(t, ok)
	// Set against a dead backend must not panic either.
	s.Set(context.Background(), "k1", []byte("v1"), TTLLogs)
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore("not-a-url")
	assert.Error(t, err)
}
