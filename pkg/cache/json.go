package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetJSON decodes a cached value into T. A decode failure counts as a miss.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool) {
	var v T
	b, ok := c.Get(ctx, key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, false
	}
	return v, true
}

func SetJSON[T any](ctx context.Context, c Cache, key string, v T, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, b, ttl)
}

// Remember returns the cached value for key or calls load and caches its
// result. hit reports whether load was skipped. A failing cache write does
// not fail the call.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (v T, hit bool, err error) {
	if v, ok := GetJSON[T](ctx, c, key); ok {
		return v, true, nil
	}
	v, err = load(ctx)
	if err != nil {
		return v, false, err
	}
	_ = SetJSON(ctx, c, key, v, ttl)
	return v, false, nil
}
