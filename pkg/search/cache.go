package search

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// resultTTL is how long a search's id set can be referenced by an
	// export request before it expires.
	resultTTL = 15 * time.Minute

	// maxCachedResults bounds memory: beyond this, the oldest entry is
	// evicted on insert.
	maxCachedResults = 128
)

// resultCache keeps the full id set of recent searches keyed by an opaque
// token, so a later export call can name the result set it wants instead of
// relying on process-wide "last search" state.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	ids     []int64
	created time.Time
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]cacheEntry)}
}

// Put stores the id set and returns a fresh token for it.
func (c *resultCache) Put(ids []int64) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for token, entry := range c.entries {
		if now.Sub(entry.created) > resultTTL {
			delete(c.entries, token)
		}
	}
	if len(c.entries) >= maxCachedResults {
		oldestToken := ""
		var oldest time.Time
		for token, entry := range c.entries {
			if oldestToken == "" || entry.created.Before(oldest) {
				oldestToken = token
				oldest = entry.created
			}
		}
		delete(c.entries, oldestToken)
	}

	token := uuid.New().String()
	c.entries[token] = cacheEntry{ids: ids, created: now}
	return token
}

// Lookup resolves a token to its id set. Expired or unknown tokens return
// false; callers fall back to the unrestricted set.
func (c *resultCache) Lookup(token string) ([]int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[token]
	if !ok || time.Since(entry.created) > resultTTL {
		delete(c.entries, token)
		return nil, false
	}
	return entry.ids, true
}
