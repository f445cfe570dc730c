package cache

import (
	"time"
)

// CacheService is the shared short-lived cache used by the fetch layer to
// remember hosts that answered with a rate-limit status, so concurrent site
// crawls back off together.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
