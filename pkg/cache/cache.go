package cache

import (
	"strconv"
	"sync"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/metrics"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/cespare/xxhash/v2"
)

const (
	DefaultTTL            = 5 * time.Minute
	DefaultSweepThreshold = 100
)

type entry struct {
	data      model.TransactionData
	timestamp time.Time
}

// TransactionCache memoizes validated transactions for a fixed TTL.
// Expired entries are dropped on lookup, and all of them are swept once the
// entry count passes the sweep threshold on insert. There is no LRU eviction.
type TransactionCache struct {
	mu             sync.Mutex
	entries        map[string]entry
	ttl            time.Duration
	sweepThreshold int
	now            func() time.Time
	metrics        *metrics.Registry
}

type Option func(*TransactionCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *TransactionCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithSweepThreshold(n int) Option {
	return func(c *TransactionCache) {
		if n > 0 {
			c.sweepThreshold = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *TransactionCache) {
		if now != nil {
			c.now = now
		}
	}
}

func WithMetrics(r *metrics.Registry) Option {
	return func(c *TransactionCache) {
		c.metrics = r
	}
}

func New(opts ...Option) *TransactionCache {
	c := &TransactionCache{
		entries:        make(map[string]entry),
		ttl:            DefaultTTL,
		sweepThreshold: DefaultSweepThreshold,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Key fingerprints a transcript for a language. Collisions are tolerated.
func Key(language model.Language, transcript string) string {
	return strconv.FormatUint(xxhash.Sum64String(transcript+string(language)), 16)
}

func (c *TransactionCache) Get(key string) (model.TransactionData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.metrics.CacheMiss()
		return model.TransactionData{}, false
	}
	if !c.valid(e) {
		delete(c.entries, key)
		c.metrics.CacheEvicted(1)
		c.metrics.CacheMiss()
		return model.TransactionData{}, false
	}

	c.metrics.CacheHit()
	return cloneTransaction(e.data), true
}

func (c *TransactionCache) Put(key string, data model.TransactionData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{data: cloneTransaction(data), timestamp: c.now()}
	if len(c.entries) > c.sweepThreshold {
		c.sweepLocked()
	}
}

// Sweep removes every expired entry and reports how many were removed.
func (c *TransactionCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked()
}

func (c *TransactionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TransactionCache) sweepLocked() int {
	removed := 0
	for key, e := range c.entries {
		if !c.valid(e) {
			delete(c.entries, key)
			removed++
		}
	}
	c.metrics.CacheEvicted(removed)
	return removed
}

func (c *TransactionCache) valid(e entry) bool {
	return c.now().Sub(e.timestamp) < c.ttl
}

// cloneTransaction copies the slices so callers cannot mutate cached state.
func cloneTransaction(data model.TransactionData) model.TransactionData {
	cloned := data
	if data.Items != nil {
		cloned.Items = append([]model.LineItem(nil), data.Items...)
	}
	if data.Metadata.ExtractedEntities != nil {
		cloned.Metadata.ExtractedEntities = append([]string(nil), data.Metadata.ExtractedEntities...)
	}
	return cloned
}
