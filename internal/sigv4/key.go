package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"sync"

	"golang.org/x/sync/singleflight"
)

// deriveKey computes the date-, region-, and service-scoped signing key from
// the secret key via the fixed HMAC-SHA256 chain. Pure function: identical
// inputs always produce the same 32 bytes.
func deriveKey(secretKey, date8, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(date8))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte(scopeSuffix))
}

func hmacSHA256(key, msg []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(msg)
	return m.Sum(nil)
}

// keyCache holds the signing key for the current UTC day. Reads vastly
// outnumber writes, so lookups take an RLock; when the date rolls over,
// singleflight collapses concurrent rederivations into one. A duplicate
// derivation would be harmless anyway since deriveKey is idempotent.
type keyCache struct {
	mu    sync.RWMutex
	date8 string
	key   []byte

	group singleflight.Group
}

func (c *keyCache) get(secretKey, region, service, date8 string) []byte {
	c.mu.RLock()
	if c.date8 == date8 {
		key := c.key
		c.mu.RUnlock()
		return key
	}
	c.mu.RUnlock()

	v, _, _ := c.group.Do(date8, func() (any, error) {
		key := deriveKey(secretKey, date8, region, service)
		c.mu.Lock()
		c.date8 = date8
		c.key = key
		c.mu.Unlock()
		return key, nil
	})
	return v.([]byte)
}
