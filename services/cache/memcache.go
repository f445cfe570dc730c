package cache

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService backs CacheService with memcached. The fetch layer stores
// short-lived host-block entries here, so expirations are always seconds
// scale and a lost entry is harmless.
type MemcacheService struct {
	client *memcache.Client
}

var _ CacheService = (*MemcacheService)(nil)

// NewMemcacheService connects to the memcached server at addr.
func NewMemcacheService(addr string) *MemcacheService {
	return &MemcacheService{client: memcache.New(addr)}
}

// Get retrieves a value; a miss is returned as an error.
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores a value with the given expiration, rounded down to seconds.
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
}

// Delete removes a value.
func (m *MemcacheService) Delete(key string) error {
	return m.client.Delete(key)
}
