package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// localCache is a size-bounded LRU. The LRU evicts on its own default
// TTL; shorter per-key TTLs are checked on read.
type localCache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, localEntry]
}

type localEntry struct {
	value   []byte
	expires time.Time
}

func NewLocalCache(config LocalConfig) Cache {
	config = config.withDefaults()
	return &localCache{
		lru: expirable.NewLRU[string, localEntry](config.MaxSize, nil, config.DefaultExpiration),
	}
}

func (lc *localCache) Get(_ context.Context, key string) ([]byte, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.get(key)
}

func (lc *localCache) get(key string) ([]byte, bool) {
	e, ok := lc.lru.Get(key)
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		lc.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (lc *localCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.set(key, value, ttl)
	return nil
}

func (lc *localCache) set(key string, value []byte, ttl time.Duration) {
	e := localEntry{value: value}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	lc.lru.Add(key, e)
}

func (lc *localCache) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if _, ok := lc.get(key); ok {
		return false, nil
	}
	lc.set(key, value, ttl)
	return true, nil
}

func (lc *localCache) Delete(_ context.Context, key string) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lru.Remove(key)
	return nil
}

func (lc *localCache) Close() error { return nil }
