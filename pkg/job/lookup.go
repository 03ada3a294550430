package job

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dmitrymomot/fuzzfleet/pkg/cache"
)

// errAbsent keeps negative answers out of the cache.
var errAbsent = errors.New("job: absent")

// CachedTargets remembers targets that exist. Targets are never deleted, so
// a positive answer stays valid; negative answers always hit the inner lookup.
func CachedTargets(inner TargetLookup, c cache.Cache[bool], ttl time.Duration) TargetLookup {
	return &cachedTargets{inner: inner, loader: cache.NewLoader(c), ttl: ttl}
}

// CachedInputs is CachedTargets for inputs.
func CachedInputs(inner InputLookup, c cache.Cache[bool], ttl time.Duration) InputLookup {
	return &cachedInputs{inner: inner, loader: cache.NewLoader(c), ttl: ttl}
}

type cachedTargets struct {
	inner  TargetLookup
	loader *cache.Loader[bool]
	ttl    time.Duration
}

func (c *cachedTargets) TargetExists(ctx context.Context, id int64) (bool, error) {
	return cachedExists(ctx, c.loader, "target:"+strconv.FormatInt(id, 10), c.ttl, func(ctx context.Context) (bool, error) {
		return c.inner.TargetExists(ctx, id)
	})
}

type cachedInputs struct {
	inner  InputLookup
	loader *cache.Loader[bool]
	ttl    time.Duration
}

func (c *cachedInputs) InputExists(ctx context.Context, id int64) (bool, error) {
	return cachedExists(ctx, c.loader, "input:"+strconv.FormatInt(id, 10), c.ttl, func(ctx context.Context) (bool, error) {
		return c.inner.InputExists(ctx, id)
	})
}

func cachedExists(ctx context.Context, l *cache.Loader[bool], key string, ttl time.Duration, lookup func(context.Context) (bool, error)) (bool, error) {
	ok, err := l.Load(ctx, key, func(ctx context.Context) (bool, time.Duration, error) {
		ok, err := lookup(ctx)
		if err != nil {
			return false, 0, err
		}
		if !ok {
			return false, 0, errAbsent
		}
		return true, ttl, nil
	})
	if errors.Is(err, errAbsent) {
		return false, nil
	}
	return ok, err
}
