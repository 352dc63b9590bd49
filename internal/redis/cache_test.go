package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testView struct {
	Name string `json:"name"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*ViewCache[testView], *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewViewCache[testView](client, "test:view:", ttl), mr
}

func TestViewCacheRoundTrip(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "a")
	assert.False(t, ok)

	version, err := cache.Version(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, version)
	assert.True(t, cache.SetIfVersion(ctx, "a", &testView{Name: "alpha"}, version))
	assert.True(t, mr.Exists("test:view:a"))
	assert.Equal(t, time.Minute, mr.TTL("test:view:a"))

	got, ok := cache.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "alpha", got.Name)
}

func TestViewCacheCorruptEntryIsMiss(t *testing.T) {
	cache, mr := newTestCache(t, 0)
	require.NoError(t, mr.Set("test:view:bad", "{not json"))

	_, ok := cache.Get(context.Background(), "bad")
	assert.False(t, ok)
}

func TestViewCacheDeleteMany(t *testing.T) {
	cache, mr := newTestCache(t, 0)
	ctx := context.Background()
	require.True(t, cache.SetIfVersion(ctx, "a", &testView{Name: "a"}, ""))
	require.True(t, cache.SetIfVersion(ctx, "b", &testView{Name: "b"}, ""))

	cache.Delete(ctx, "a", "", "b")

	assert.False(t, mr.Exists("test:view:a"))
	assert.False(t, mr.Exists("test:view:b"))
	assert.True(t, mr.Exists("test:view:a:version"))
	assert.False(t, mr.Exists("test:view::version"))
}

func TestViewCacheWriteAfterDeleteIsRejected(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	// A reader takes the version, then loads a value that a writer deletes
	// before the reader gets to cache it.
	version, err := cache.Version(ctx, "a")
	require.NoError(t, err)
	cache.Delete(ctx, "a")

	assert.False(t, cache.SetIfVersion(ctx, "a", &testView{Name: "stale"}, version))
	assert.False(t, mr.Exists("test:view:a"))

	fresh, err := cache.Version(ctx, "a")
	require.NoError(t, err)
	assert.NotEqual(t, version, fresh)
	assert.True(t, cache.SetIfVersion(ctx, "a", &testView{Name: "fresh"}, fresh))
	got, ok := cache.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "fresh", got.Name)
	assert.Equal(t, time.Minute, mr.TTL("test:view:a"))
}

func TestViewCacheVersionUnavailable(t *testing.T) {
	cache, mr := newTestCache(t, 0)
	mr.Close()

	_, err := cache.Version(context.Background(), "a")
	assert.Error(t, err)
	assert.False(t, cache.SetIfVersion(context.Background(), "a", &testView{Name: "a"}, ""))
}

func TestNewClientPing(t *testing.T) {
	mr := miniredis.RunT(t)

	addr := mr.Addr()
	c, err := NewClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	defer c.Close()

	mr.Close()
	_, err = NewClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
