package sentry_ext

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const (
	recentErrorDuration = 5 * time.Minute
	defaultCacheSize    = 100
)

// cache remembers when each message was last sent.
type cache struct {
	*lru.Cache
	now func() time.Time
}

func newCache(size int) (*cache, error) {
	if size == 0 {
		size = defaultCacheSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &cache{Cache: c, now: time.Now}, nil
}

func hashMessage(msg string) string {
	h := md5.Sum([]byte(msg))
	return hex.EncodeToString(h[:])
}

// shouldCapture reports whether msg was not sent in the last
// recentErrorDuration, and records it as sent now.
func (c *cache) shouldCapture(msg string) bool {
	key := hashMessage(msg)
	now := c.now()

	if lastSent, ok := c.Get(key); ok {
		if now.Sub(lastSent.(time.Time)) < recentErrorDuration {
			return false
		}
	}

	c.Add(key, now)
	return true
}

func (c *cache) forget(msg string) {
	c.Remove(hashMessage(msg))
}
