// Package cache provides the small key-value caches used in front of
// target and input existence lookups.
//
// Two backends implement [Cache]: [Memory], an in-process LRU with
// per-entry expiry, and [Redis], which lets several service replicas
// share answers. [Loader] sits on top of either and collapses concurrent
// misses for the same key into one load:
//
//	c := cache.NewMemory[bool](cache.WithMaxEntries(10_000))
//	defer c.Close()
//
//	l := cache.NewLoader[bool](c)
//	ok, err := l.Load(ctx, "target:42", func(ctx context.Context) (bool, time.Duration, error) {
//		exists, err := store.TargetExists(ctx, 42)
//		return exists, 0, err
//	})
//
// A load that returns an error is not cached.
package cache
