// Package cache implements the two-level TTL cache used for forecast results:
// an in-process map in front of a durable storage.Store document.
package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/metrics"
	"github.com/Veraticus/amo-inventory/internal/model"
	"github.com/Veraticus/amo-inventory/internal/storage"
)

// DefaultTTL is how long a forecast stays valid.
const DefaultTTL = time.Hour

// keySeparator joins forecast key fields; none of the fields can contain it.
const keySeparator = "|"

// Entry is a cached value with an absolute expiry in unix milliseconds.
type Entry[T any] struct {
	Value     T     `json:"value"`
	ExpiresAt int64 `json:"expiresAt"`
}

// liveAt reports whether the entry is usable at now.
func (e Entry[T]) liveAt(now time.Time) bool {
	return now.UnixMilli() < e.ExpiresAt
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Promotions    uint64
	StorageErrors uint64
	MemoryEntries int
}

// Cache is a TTL cache layered over an in-memory map and a durable store.
// Durable failures never reach the caller: the cache degrades to memory-only.
type Cache[T any] struct {
	store      storage.Store
	clock      clockwork.Clock
	metrics    *metrics.Registry
	memory     map[string]Entry[T]
	storageKey string
	stats      Stats
	ttl        time.Duration
	mu         sync.Mutex
	persistMu  sync.Mutex
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock      clockwork.Clock
	metrics    *metrics.Registry
	storageKey string
	ttl        time.Duration
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithClock injects a clock, typically clockwork.NewFakeClock in tests.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithMetrics records hits, misses and swallowed storage errors.
func WithMetrics(m *metrics.Registry) Option {
	return func(o *options) { o.metrics = m }
}

// WithStorageKey sets the durable document key.
func WithStorageKey(key string) Option {
	return func(o *options) { o.storageKey = key }
}

// New creates a cache. A nil store gives a memory-only cache.
func New[T any](store storage.Store, opts ...Option) *Cache[T] {
	o := options{
		clock:      clockwork.NewRealClock(),
		storageKey: storage.KeyForecastCache,
		ttl:        DefaultTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl <= 0 {
		o.ttl = DefaultTTL
	}

	return &Cache[T]{
		store:      store,
		clock:      o.clock,
		metrics:    o.metrics,
		memory:     make(map[string]Entry[T]),
		storageKey: o.storageKey,
		ttl:        o.ttl,
	}
}

// NewForecastCache is the cache used for /predict responses.
func NewForecastCache(store storage.Store, opts ...Option) *Cache[model.ForecastResponse] {
	return New[model.ForecastResponse](store, opts...)
}

// Get returns the live value for key, checking memory before durable storage.
// A durable hit is promoted into memory.
func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	now := c.clock.Now()

	c.mu.Lock()
	if entry, ok := c.memory[key]; ok {
		if entry.liveAt(now) {
			c.stats.Hits++
			c.mu.Unlock()
			c.observeHit()
			return entry.Value, true
		}
		delete(c.memory, key)
	}
	c.mu.Unlock()

	all := c.loadDurable(ctx)
	if entry, ok := all[key]; ok && entry.liveAt(now) {
		c.mu.Lock()
		c.memory[key] = entry
		c.stats.Hits++
		c.stats.Promotions++
		c.mu.Unlock()
		c.observeHit()
		if c.metrics != nil {
			c.metrics.CachePromotions.Inc()
		}
		return entry.Value, true
	}

	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
	return zero, false
}

// Set stores value under key until now+TTL, in memory and in durable storage.
// Expired durable entries are pruned on the same write.
func (c *Cache[T]) Set(ctx context.Context, key string, value T) {
	now := c.clock.Now()
	entry := Entry[T]{Value: value, ExpiresAt: now.Add(c.ttl).UnixMilli()}

	c.mu.Lock()
	c.memory[key] = entry
	c.mu.Unlock()

	if c.store == nil {
		return
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	all := c.loadDurable(ctx)
	all[key] = entry
	pruneExpired(all, now)
	c.saveDurable(ctx, all)
}

// Prune drops expired entries from memory and durable storage and returns how
// many durable entries were removed.
func (c *Cache[T]) Prune(ctx context.Context) int {
	now := c.clock.Now()

	c.mu.Lock()
	pruneExpired(c.memory, now)
	c.mu.Unlock()

	if c.store == nil {
		return 0
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	all := c.loadDurable(ctx)
	removed := pruneExpired(all, now)
	if removed > 0 {
		c.saveDurable(ctx, all)
	}
	return removed
}

// Clear empties both levels.
func (c *Cache[T]) Clear(ctx context.Context) {
	c.mu.Lock()
	c.memory = make(map[string]Entry[T])
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, c.storageKey); err != nil {
		c.storageFailure("clear", err)
	}
}

// Len counts live entries in durable storage, or in memory when the cache
// has no store.
func (c *Cache[T]) Len(ctx context.Context) int {
	now := c.clock.Now()
	if c.store == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		return countLive(c.memory, now)
	}
	return countLive(c.loadDurable(ctx), now)
}

// Stats returns a snapshot of cache activity.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.MemoryEntries = len(c.memory)
	return s
}

// loadDurable reads the durable document. Any failure yields an empty map.
func (c *Cache[T]) loadDurable(ctx context.Context) map[string]Entry[T] {
	all := make(map[string]Entry[T])
	if c.store == nil {
		return all
	}
	if err := storage.GetJSON(ctx, c.store, c.storageKey, &all); err != nil {
		if !storage.IsNotFound(err) {
			c.storageFailure("load", err)
		}
		return make(map[string]Entry[T])
	}
	return all
}

func (c *Cache[T]) saveDurable(ctx context.Context, all map[string]Entry[T]) {
	if err := storage.SetJSON(ctx, c.store, c.storageKey, all); err != nil {
		c.storageFailure("persist", err)
	}
}

func (c *Cache[T]) storageFailure(op string, err error) {
	c.mu.Lock()
	c.stats.StorageErrors++
	c.mu.Unlock()
	c.metrics.StorageError("cache", op)
	common.LogDebug("cache storage unavailable, using memory only", common.Fields{
		"op":    op,
		"key":   c.storageKey,
		"error": err.Error(),
	})
}

func (c *Cache[T]) observeHit() {
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
}

// pruneExpired deletes entries that are no longer live at now.
func pruneExpired[T any](entries map[string]Entry[T], now time.Time) int {
	removed := 0
	for k, e := range entries {
		if !e.liveAt(now) {
			delete(entries, k)
			removed++
		}
	}
	return removed
}

func countLive[T any](entries map[string]Entry[T], now time.Time) int {
	n := 0
	for _, e := range entries {
		if e.liveAt(now) {
			n++
		}
	}
	return n
}

// BuildForecastKey joins the forecast inputs into a cache key.
func BuildForecastKey(skuID, date string, temp, rain float64, holiday int) string {
	return strings.Join([]string{
		skuID,
		date,
		strconv.FormatFloat(temp, 'f', -1, 64),
		strconv.FormatFloat(rain, 'f', -1, 64),
		strconv.Itoa(holiday),
	}, keySeparator)
}

// ForecastKey builds the cache key for p.
func ForecastKey(p model.ForecastParams) string {
	return BuildForecastKey(p.SKUID, p.Date, p.Temp, p.Rain, p.Holiday)
}
