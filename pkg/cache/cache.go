package cache

import "time"

// Cache is the interface for caching fetched candle series.
// A series is stored under its (pair, granularity) key so the upstream
// source is hit at most once per key for the lifetime of a run.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns (value, true) if found, (nil, false) if not found.
	Get(key string) (interface{}, bool)

	// Set stores a value in the cache with a TTL.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Clear removes all values from the cache.
	Clear()

	// Close closes the cache and releases resources.
	Close()
}
