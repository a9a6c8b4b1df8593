// Package cache implements in-memory deduplication of discovered postings
// plus a blocklist of unwanted terms.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultTTL is how long a registered fingerprint counts as a duplicate.
const DefaultTTL = 24 * time.Hour

// defaultBlocklist seeds every new cache. Terms are matched case-insensitively
// as substrings of the combined title + company text.
var defaultBlocklist = []string{
	"mlm",
	"pyramid",
	"commission only",
	"door to door",
	"unpaid internship",
}

type entry struct {
	registeredAt time.Time
}

// Cache tracks fingerprints of recently seen postings and a blocklist of
// terms. All methods are safe for concurrent use; the check-then-write in
// IsDuplicate and Register holds the lock for the whole operation.
type Cache struct {
	mu        sync.Mutex
	entries   map[uint64]entry
	blocklist map[string]struct{}
	ttl       time.Duration
	now       func() time.Time
}

// New returns a Cache with the default TTL and blocklist.
func New() *Cache {
	c := &Cache{
		entries:   make(map[uint64]entry),
		blocklist: make(map[string]struct{}),
		ttl:       DefaultTTL,
		now:       time.Now,
	}
	for _, term := range defaultBlocklist {
		c.blocklist[term] = struct{}{}
	}
	return c
}

// Fingerprint derives a stable 64-bit fingerprint from a posting's title and
// link. Title casing does not matter; the link is hashed as-is.
func Fingerprint(title, link string) uint64 {
	return xxhash.Sum64String(strings.ToLower(title) + link)
}

// IsDuplicate reports whether the posting was registered within the TTL.
// Expired entries are deleted on check, so an expired posting reads as new.
func (c *Cache) IsDuplicate(title, link string) bool {
	fp := Fingerprint(title, link)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fp]
	if !ok {
		return false
	}
	// An entry aged exactly TTL is already expired.
	if c.now().Sub(e.registeredAt) >= c.ttl {
		delete(c.entries, fp)
		return false
	}
	return true
}

// Register records the posting's fingerprint with the current time,
// overwriting any previous registration.
func (c *Cache) Register(title, link string) {
	fp := Fingerprint(title, link)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fp] = entry{registeredAt: c.now()}
}

// IsBlocked returns true if any blocklist term appears (case-insensitive)
// anywhere in the combined title + company text.
func (c *Cache) IsBlocked(title, company string) bool {
	combined := strings.ToLower(title + " " + company)

	c.mu.Lock()
	defer c.mu.Unlock()

	for term := range c.blocklist {
		if strings.Contains(combined, term) {
			return true
		}
	}
	return false
}

// Block adds a term to the blocklist. Terms are stored lowercased; adding an
// existing term is a no-op.
func (c *Cache) Block(term string) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocklist[term] = struct{}{}
}

// Stats reports the current number of cached fingerprints (including any not
// yet lazily expired) and blocklist terms.
func (c *Cache) Stats() (cached, blocked int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries), len(c.blocklist)
}
