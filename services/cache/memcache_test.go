package cache

import (
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
)

// This test requires a running memcached instance and is skipped otherwise.
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")

	_, err := mc.client.Get("probe")
	if err != nil && err != memcache.ErrCacheMiss {
		t.Skip("Memcached is not available, skipping test")
	}

	err = mc.Set("block:example.com", []byte("60"), 1*time.Second)
	assert.NoError(t, err)

	value, err := mc.Get("block:example.com")
	assert.NoError(t, err)
	assert.Equal(t, "60", string(value))

	err = mc.Delete("block:example.com")
	assert.NoError(t, err)

	_, err = mc.Get("block:example.com")
	assert.Error(t, err)
}
