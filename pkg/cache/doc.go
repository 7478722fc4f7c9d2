// Package cache stores probe outcomes in Redis so repeated runs can skip
// identifiers whose existence was confirmed recently.
//
// Entries carry their own expiry; the Redis TTL is derived from it, so an
// entry disappears from Redis when it stops being valid.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	entry, err := manager.Get(ctx, "9781838823818")
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// probe the catalog
//	}
//
//	_ = manager.Set(ctx, cache.NewEntry("9781838823818", true, time.Hour))
//
// # Metrics
//
//   - catalog_cache_hits_total{outcome} - Cache hits by cached outcome
//   - catalog_cache_misses_total - Cache misses
//   - catalog_cache_errors_total{operation} - Cache operation errors
package cache
