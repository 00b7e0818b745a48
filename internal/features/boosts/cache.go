package boosts

import (
	"fmt"
	"sync"
	"time"
)

type cacheEntry struct {
	value     float64
	expiresAt time.Time
}

// ttlCache — кэш множителей с истечением по времени.
// Часы вынесены в поле, чтобы тесты не ждали реального TTL.
type ttlCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(guildID, userID int64) string {
	return fmt.Sprintf("%d:%d", guildID, userID)
}

func (c *ttlCache) get(guildID, userID int64) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey(guildID, userID)]
	if !ok || c.now().After(e.expiresAt) {
		return 0, false
	}
	return e.value, true
}

func (c *ttlCache) set(guildID, userID int64, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(guildID, userID)] = cacheEntry{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *ttlCache) invalidate(guildID, userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(guildID, userID))
}
