// Package cache memoizes parse results by normalized name. A bounded LRU
// memory tier sits in front of an optional persistent store; writes to the
// store are buffered and flushed in batches.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tidyframe/tidyframe/internal/model"
	"github.com/tidyframe/tidyframe/internal/normalize"
	"github.com/tidyframe/tidyframe/internal/resilience"
	"github.com/tidyframe/tidyframe/internal/store"
)

// Defaults for Config fields left at zero.
const (
	DefaultMaxMemory      = 5000
	DefaultTTL            = 24 * time.Hour
	DefaultFlushBatchSize = 50
	DefaultFlushInterval  = 30 * time.Second
)

// maxPendingFactor bounds the write buffer, in flush batches, while the
// store keeps failing.
const maxPendingFactor = 20

// Config configures a Manager.
type Config struct {
	MaxMemory      int
	TTL            time.Duration
	FlushBatchSize int
	FlushInterval  time.Duration
	Retry          resilience.Backoff
	Breaker        resilience.BreakerConfig
}

func (c Config) withDefaults() Config {
	if c.MaxMemory <= 0 {
		c.MaxMemory = DefaultMaxMemory
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.FlushBatchSize <= 0 {
		c.FlushBatchSize = DefaultFlushBatchSize
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	return c
}

// entry is a memory-tier value. dirty marks access metadata not yet
// written to the store.
type entry struct {
	model.CachedResult
	dirty bool
}

// dupGroup tracks the raw spellings seen for one normalized name.
type dupGroup struct {
	key     string
	aliases map[string]struct{}
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits                int64   `json:"hits"`
	Misses              int64   `json:"misses"`
	Evictions           int64   `json:"evictions"`
	DuplicateDetections int64   `json:"duplicate_detections"`
	StoreErrors         int64   `json:"store_errors"`
	MemorySize          int     `json:"memory_cache_size"`
	PendingWrites       int     `json:"pending_writes"`
	HitRate             float64 `json:"hit_rate"`
}

// Manager is the two-tier name cache. It is safe for concurrent use.
// Lock order: mu before writeMu.
type Manager struct {
	cfg     Config
	store   store.Store
	breaker *resilience.Breaker

	mu       sync.Mutex
	memory   *lru.Cache[string, *entry]
	index    map[string]*dupGroup
	sweeping bool

	writeMu   sync.Mutex
	pending   map[string]model.CachedResult
	lastFlush time.Time

	hits, misses, evictions, dups, storeErrors atomic.Int64

	now func() time.Time
}

// New creates a Manager. st may be nil for a memory-only cache.
func New(cfg Config, st store.Store) (*Manager, error) {
	cfg = cfg.withDefaults()
	m := &Manager{
		cfg:     cfg,
		store:   st,
		breaker: resilience.NewBreaker("cache-store", cfg.Breaker),
		index:   make(map[string]*dupGroup),
		pending: make(map[string]model.CachedResult),
		now:     func() time.Time { return time.Now().UTC() },
	}
	memory, err := lru.NewWithEvict(cfg.MaxMemory, m.onEvict)
	if err != nil {
		return nil, eris.Wrap(err, "cache: create memory tier")
	}
	m.memory = memory
	m.lastFlush = m.now()
	return m, nil
}

// onEvict runs under mu from inside memory tier calls.
func (m *Manager) onEvict(key string, e *entry) {
	if m.sweeping {
		return
	}
	m.evictions.Add(1)
	delete(m.index, e.NormalizedName)
	if e.dirty && m.store != nil {
		m.writeMu.Lock()
		m.pending[key] = e.CachedResult
		m.writeMu.Unlock()
	}
}

// Get returns the cached result for name, or nil on a miss. Expired
// entries are misses. Store failures are logged and treated as misses.
func (m *Manager) Get(ctx context.Context, name string) *model.CachedResult {
	norm, key := normalize.Key(name)
	now := m.now()

	m.mu.Lock()
	if e, ok := m.memory.Get(key); ok {
		defer m.mu.Unlock()
		if e.Expired(now, m.cfg.TTL) {
			m.misses.Add(1)
			return nil
		}
		e.AccessCount++
		e.LastAccessed = now
		e.dirty = true
		m.hits.Add(1)
		return snapshot(e.CachedResult)
	}
	m.mu.Unlock()

	found, fromStore := m.pendingEntry(key), false
	if found == nil {
		found, fromStore = m.loadFromStore(ctx, key), true
	}
	if found == nil || found.Expired(now, m.cfg.TTL) {
		m.misses.Add(1)
		return nil
	}

	found.AccessCount++
	found.LastAccessed = now
	// A touched store row already carries this access.
	dirty := !fromStore || !m.touch(ctx, key, now)
	m.promote(norm, found, dirty)
	m.hits.Add(1)
	return snapshot(*found)
}

// touch records an access on the store row. It reports whether the store
// was updated.
func (m *Manager) touch(ctx context.Context, key string, at time.Time) bool {
	err := m.breaker.Do(ctx, func(ctx context.Context) error {
		return m.store.Touch(ctx, key, at)
	})
	if err != nil {
		m.storeErrors.Add(1)
		zap.L().Warn("cache: store touch failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (m *Manager) pendingEntry(key string) *model.CachedResult {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if c, ok := m.pending[key]; ok {
		return &c
	}
	return nil
}

func (m *Manager) loadFromStore(ctx context.Context, key string) *model.CachedResult {
	if m.store == nil {
		return nil
	}
	c, err := resilience.Call(ctx, m.breaker, func(ctx context.Context) (*model.CachedResult, error) {
		return m.store.Get(ctx, key)
	})
	if err != nil {
		m.storeErrors.Add(1)
		zap.L().Warn("cache: store lookup failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return c
}

// promote inserts a result found below the memory tier.
func (m *Manager) promote(norm string, c *model.CachedResult, dirty bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.memory.Peek(c.Key); ok {
		return
	}
	if _, ok := m.index[norm]; !ok {
		m.index[norm] = &dupGroup{key: c.Key, aliases: map[string]struct{}{}}
	}
	m.memory.Add(c.Key, &entry{CachedResult: *c, dirty: dirty})
}

// Put caches result under name. A name whose normalized form is already
// cached registers as an alias of the existing entry instead of creating
// a new one.
func (m *Manager) Put(ctx context.Context, name string, result model.ParsedName) {
	norm, key := normalize.Key(name)
	alias := normalize.CacheKey(name)
	now := m.now()

	m.mu.Lock()
	if g, ok := m.index[norm]; ok {
		if _, seen := g.aliases[alias]; !seen {
			g.aliases[alias] = struct{}{}
			m.dups.Add(1)
		}
		if e, ok := m.memory.Peek(g.key); ok && !e.Expired(now, m.cfg.TTL) {
			m.mu.Unlock()
			return
		}
	} else {
		m.index[norm] = &dupGroup{key: key, aliases: map[string]struct{}{alias: {}}}
	}

	c := model.CachedResult{
		Key:            key,
		NormalizedName: norm,
		Result:         result.Clone(),
		CachedAt:       now,
		LastAccessed:   now,
	}
	m.memory.Add(key, &entry{CachedResult: c})
	m.mu.Unlock()

	m.enqueue(ctx, c)
}

func (m *Manager) enqueue(ctx context.Context, c model.CachedResult) {
	if m.store == nil {
		return
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.pending[c.Key] = c
	if len(m.pending) >= m.cfg.FlushBatchSize || m.now().Sub(m.lastFlush) >= m.cfg.FlushInterval {
		m.flushLocked(ctx) //nolint:errcheck
	}
}

// BatchGet looks up several names. Misses map to nil.
func (m *Manager) BatchGet(ctx context.Context, names []string) map[string]*model.CachedResult {
	out := make(map[string]*model.CachedResult, len(names))
	for _, n := range names {
		if _, done := out[n]; done {
			continue
		}
		out[n] = m.Get(ctx, n)
	}
	return out
}

// Stats returns a snapshot of the cache counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	size := m.memory.Len()
	m.mu.Unlock()
	m.writeMu.Lock()
	pending := len(m.pending)
	m.writeMu.Unlock()

	s := Stats{
		Hits:                m.hits.Load(),
		Misses:              m.misses.Load(),
		Evictions:           m.evictions.Load(),
		DuplicateDetections: m.dups.Load(),
		StoreErrors:         m.storeErrors.Load(),
		MemorySize:          size,
		PendingWrites:       pending,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

func snapshot(c model.CachedResult) *model.CachedResult {
	c.Result = c.Result.Clone()
	return &c
}
