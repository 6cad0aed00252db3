package cache

import (
	"context"
	"sync"
	"time"

	"github.com/petrijr/tally/pkg/api"
)

// MemoryCache is a goroutine-safe in-process ResponseCache with per-entry
// TTL. Expired entries are evicted lazily on Get.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry

	// now is swappable for tests.
	now func() time.Time
}

type memoryEntry struct {
	reply   string
	expires time.Time
}

var _ api.ResponseCache = (*MemoryCache)(nil)

// NewMemoryCache creates a MemoryCache. ttl <= 0 means entries never
// expire.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) key(owner, text string) string {
	return owner + "\x00" + NormalizeText(text)
}

func (c *MemoryCache) Get(ctx context.Context, owner, text string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := c.key(owner, text)
	e, ok := c.entries[k]
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, k)
		return "", false, nil
	}
	return e.reply, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, owner, text, reply string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{reply: reply}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[c.key(owner, text)] = e
	return nil
}
