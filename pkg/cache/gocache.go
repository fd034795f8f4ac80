package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// goCacheWrapper go-cache包装器
type goCacheWrapper struct {
	cache *gocache.Cache
}

// NewGoCache 创建基于go-cache的本地缓存. MaxSize is not enforced.
func NewGoCache(config LocalConfig) Cache {
	config = config.withDefaults()
	return &goCacheWrapper{cache: gocache.New(config.DefaultExpiration, config.CleanupInterval)}
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.DefaultExpiration
	}
	return ttl
}

func (gc *goCacheWrapper) Get(_ context.Context, key string) ([]byte, bool) {
	v, found := gc.cache.Get(key)
	if !found {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (gc *goCacheWrapper) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	gc.cache.Set(key, value, ttlOrDefault(ttl))
	return nil
}

// SetNX relies on go-cache's Add, which fails for a live key.
func (gc *goCacheWrapper) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return gc.cache.Add(key, value, ttlOrDefault(ttl)) == nil, nil
}

func (gc *goCacheWrapper) Delete(_ context.Context, key string) error {
	gc.cache.Delete(key)
	return nil
}

func (gc *goCacheWrapper) Close() error { return nil }

// ItemCount 获取缓存项数量
func (gc *goCacheWrapper) ItemCount() int {
	return gc.cache.ItemCount()
}
