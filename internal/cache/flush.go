package cache

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tidyframe/tidyframe/internal/model"
	"github.com/tidyframe/tidyframe/internal/resilience"
)

// ForceFlush writes all buffered entries to the store. Call it before
// shutdown.
func (m *Manager) ForceFlush(ctx context.Context) error {
	m.mu.Lock()
	for _, key := range m.memory.Keys() {
		if e, ok := m.memory.Peek(key); ok && e.dirty {
			m.writeMu.Lock()
			m.pending[key] = e.CachedResult
			m.writeMu.Unlock()
			e.dirty = false
		}
	}
	m.mu.Unlock()

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.flushLocked(ctx)
}

// flushLocked must be called with writeMu held. On failure the entries
// stay buffered, up to a bound, for the next flush.
func (m *Manager) flushLocked(ctx context.Context) error {
	m.lastFlush = m.now()
	if m.store == nil || len(m.pending) == 0 {
		clear(m.pending)
		return nil
	}

	batch := make([]model.CachedResult, 0, len(m.pending))
	for _, c := range m.pending {
		batch = append(batch, c)
	}

	err := m.breaker.Do(ctx, func(ctx context.Context) error {
		b := m.cfg.Retry
		b.OnRetry = resilience.LogRetry("cache flush")
		return resilience.Retry(ctx, b, func(ctx context.Context) error {
			return m.store.PutBatch(ctx, batch)
		})
	})
	if err != nil {
		m.storeErrors.Add(1)
		zap.L().Warn("cache: flush failed",
			zap.Int("pending", len(m.pending)),
			zap.Error(err),
		)
		m.trimPendingLocked()
		return eris.Wrap(err, "cache: flush")
	}

	zap.L().Debug("cache: flushed", zap.Int("entries", len(batch)))
	clear(m.pending)
	return nil
}

// trimPendingLocked drops the oldest buffered entries beyond the bound.
func (m *Manager) trimPendingLocked() {
	limit := m.cfg.FlushBatchSize * maxPendingFactor
	for len(m.pending) > limit {
		var oldestKey string
		var oldest time.Time
		for k, c := range m.pending {
			if oldestKey == "" || c.CachedAt.Before(oldest) {
				oldestKey, oldest = k, c.CachedAt
			}
		}
		delete(m.pending, oldestKey)
	}
}

// RunFlusher flushes on the configured interval until ctx is done, then
// flushes once more with a fresh context.
func (m *Manager) RunFlusher(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			if err := m.ForceFlush(flushCtx); err != nil {
				zap.L().Warn("cache: final flush failed", zap.Error(err))
			}
			cancel()
			return
		case <-ticker.C:
			m.writeMu.Lock()
			if m.now().Sub(m.lastFlush) >= m.cfg.FlushInterval {
				m.flushLocked(ctx) //nolint:errcheck
			}
			m.writeMu.Unlock()
		}
	}
}

// CleanupExpired removes expired entries from every tier and returns how
// many were removed.
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	now := m.now()
	removed := 0

	m.mu.Lock()
	m.sweeping = true
	for _, key := range m.memory.Keys() {
		if e, ok := m.memory.Peek(key); ok && e.Expired(now, m.cfg.TTL) {
			m.memory.Remove(key)
			delete(m.index, e.NormalizedName)
			removed++
		}
	}
	m.sweeping = false
	m.mu.Unlock()

	m.writeMu.Lock()
	for key, c := range m.pending {
		if c.Expired(now, m.cfg.TTL) {
			delete(m.pending, key)
		}
	}
	m.writeMu.Unlock()

	if m.store == nil {
		return removed, nil
	}
	n, err := m.store.DeleteExpired(ctx, now.Add(-m.cfg.TTL))
	if err != nil {
		return removed, eris.Wrap(err, "cache: cleanup expired")
	}
	return removed + n, nil
}

// ClearAll empties every tier and the duplicate index.
func (m *Manager) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	m.sweeping = true
	m.memory.Purge()
	m.sweeping = false
	m.index = make(map[string]*dupGroup)
	m.mu.Unlock()

	m.writeMu.Lock()
	clear(m.pending)
	m.writeMu.Unlock()

	if m.store == nil {
		return nil
	}
	_, err := m.store.Clear(ctx)
	return eris.Wrap(err, "cache: clear")
}
