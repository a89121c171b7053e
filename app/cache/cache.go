package cache

import (
	"context"
	"time"
)

// Cache is an advisory TTL store. The relational store stays the source of
// truth: callers treat every error as a miss and fall back to it.
//
// Every write and delete bumps a generation counter kept next to the key.
// A reader that rebuilds an entry from the store takes the generation before
// loading and installs with one of the IfGeneration methods, which refuse
// when a writer got in between.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetIfGeneration(ctx context.Context, key string, value any, ttl time.Duration, gen int64) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
	Exists(ctx context.Context, key string) (bool, error)
	Generation(ctx context.Context, key string) (int64, error)

	HashGetAll(ctx context.Context, key string) (map[string]string, error)
	HashReplaceIfGeneration(ctx context.Context, key string, fields map[string]string, ttl time.Duration, gen int64) (bool, error)
	HashSetIfExists(ctx context.Context, key, field, value string, ttl time.Duration) (bool, error)
	HashDelete(ctx context.Context, key string, fields ...string) error

	MemberReplaceIfGeneration(ctx context.Context, key string, members []string, ttl time.Duration, gen int64) (bool, error)
	MemberAdd(ctx context.Context, key, member string, ttl time.Duration) error
	MemberRemove(ctx context.Context, key, member string) error
	MemberTest(ctx context.Context, key, member string) (bool, error)
}

// ReadThrough returns the cached value for key or loads, stores and returns
// it. Loader errors are returned and never cached. A value loaded while the
// key was invalidated is returned but not stored.
func ReadThrough[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	hit, err := c.Get(ctx, key, &cached)
	if err == nil && hit {
		RecordHit(key)
		return cached, nil
	}
	RecordMiss(key)

	gen, genErr := c.Generation(ctx, key)
	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if genErr != nil {
		return value, nil
	}

	if _, err := c.SetIfGeneration(ctx, key, value, ttl, gen); err != nil {
		_ = c.Delete(ctx, key)
	}
	return value, nil
}
