package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends() map[string]Cache {
	cfg := LocalConfig{MaxSize: 2, DefaultExpiration: time.Minute, CleanupInterval: time.Minute}
	return map[string]Cache{
		"local":   NewLocalCache(cfg),
		"gocache": NewGoCache(cfg),
	}
}

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends() {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
			got, ok := c.Get(ctx, "k")
			require.True(t, ok)
			assert.Equal(t, []byte("v"), got)

			require.NoError(t, c.Delete(ctx, "k"))
			_, ok = c.Get(ctx, "k")
			assert.False(t, ok)
		})
	}
}

func TestSetNX(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends() {
		t.Run(name, func(t *testing.T) {
			ok, err := c.SetNX(ctx, "idem", []byte("1"), time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = c.SetNX(ctx, "idem", []byte("2"), time.Minute)
			require.NoError(t, err)
			assert.False(t, ok)

			got, _ := c.Get(ctx, "idem")
			assert.Equal(t, []byte("1"), got)
		})
	}
}

func TestPerKeyTTL(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends() {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Set(ctx, "short", []byte("x"), 20*time.Millisecond))
			time.Sleep(40 * time.Millisecond)
			_, ok := c.Get(ctx, "short")
			assert.False(t, ok)

			ok, err := c.SetNX(ctx, "short", []byte("y"), time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestLocalEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(LocalConfig{MaxSize: 2})
	c.Set(ctx, "a", []byte("1"), 0)
	c.Set(ctx, "b", []byte("2"), 0)
	c.Get(ctx, "a")
	c.Set(ctx, "c", []byte("3"), 0)

	_, ok := c.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)
}

type snapshot struct {
	Names []string `json:"names"`
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(LocalConfig{})
	loads := 0
	load := func(context.Context) (snapshot, error) {
		loads++
		return snapshot{Names: []string{"Apollo"}}, nil
	}

	v, hit, err := Remember(ctx, c, "hospitals", time.Minute, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"Apollo"}, v.Names)

	v, hit, err = Remember(ctx, c, "hospitals", time.Minute, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"Apollo"}, v.Names)
	assert.Equal(t, 1, loads)
}

func TestRememberDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := NewGoCache(LocalConfig{})
	_, _, err := Remember(ctx, c, "k", time.Minute, func(context.Context) (int, error) {
		return 0, errors.New("db down")
	})
	require.Error(t, err)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestFactory(t *testing.T) {
	c, err := NewCache(Config{Type: "gocache"})
	require.NoError(t, err)
	assert.IsType(t, &goCacheWrapper{}, c)

	_, err = NewCache(Config{Type: "memcached"})
	assert.Error(t, err)
}
