// Package statuscache caches replies to read-only control commands so
// frequent pollers do not open a fresh control channel per request.
package statuscache

import (
	"errors"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/nsdctl/internal/nsd/common/clock"
	"github.com/haukened/nsdctl/internal/nsd/domain"
)

var ErrInvalidTTL = errors.New("cache TTL must be positive")

type entry struct {
	resp    domain.Response
	expires time.Time
}

// Cache is a TTL-aware reply cache with an LRU backing store. Entries are
// keyed by command name and arguments, and expired entries are evicted on
// the Get that finds them.
type Cache struct {
	lru   *lru.Cache[string, entry]
	ttl   time.Duration
	clock clock.Clock
}

// New returns a Cache holding at most size replies for ttl each.
func New(size int, ttl time.Duration, clk clock.Clock) (*Cache, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	backing, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: backing, ttl: ttl, clock: clk}, nil
}

// Key derives the cache key for a command invocation. Arguments are part
// of the key so per-zone queries do not collide.
func Key(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + "\x00" + strings.Join(args, "\x00")
}

// Get returns the cached reply for key if present and not expired.
// An expired entry is removed and reported as a miss.
func (c *Cache) Get(key string) (domain.Response, bool) {
	e, found := c.lru.Get(key)
	if !found {
		return domain.Response{}, false
	}
	if !c.clock.Now().Before(e.expires) {
		c.lru.Remove(key)
		return domain.Response{}, false
	}
	return e.resp, true
}

// Set stores a reply under key for the cache's TTL.
func (c *Cache) Set(key string, resp domain.Response) {
	c.lru.Add(key, entry{resp: resp, expires: c.clock.Now().Add(c.ttl)})
}

// Delete removes the entry for key, if any.
func (c *Cache) Delete(key string) {
	c.lru.Remove(key)
}

// Purge drops every cached reply.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached replies, including any not yet
// observed to be expired.
func (c *Cache) Len() int {
	return c.lru.Len()
}
