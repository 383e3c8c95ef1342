package cache

import (
	"time"
)

const leaseKeyPrefix = "lease:"

// AcquireLease takes a short exclusive lease on a key, returning false
// when someone else already holds it. Used to keep two verification
// attempts for the same document from running at once. The TTL bounds
// how long a crashed holder can block others.
func (c *Cache) AcquireLease(key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(c.ctx, leaseKeyPrefix+key, "1", ttl).Result()
}

func (c *Cache) ReleaseLease(key string) error {
	return c.client.Del(c.ctx, leaseKeyPrefix+key).Err()
}
