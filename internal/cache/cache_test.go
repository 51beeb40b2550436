package cache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyframe/tidyframe/internal/model"
	"github.com/tidyframe/tidyframe/internal/resilience"
	"github.com/tidyframe/tidyframe/internal/store"
)

// fakeStore is an in-memory store.Store with injectable failures.
type fakeStore struct {
	mu       sync.Mutex
	rows     map[string]model.CachedResult
	getErr   error
	putErr   error
	touchErr error
	putCalls int
	touches  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]model.CachedResult{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (*model.CachedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.rows[key]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeStore) PutBatch(_ context.Context, entries []model.CachedResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	for _, e := range entries {
		f.rows[e.Key] = e
	}
	return nil
}

func (f *fakeStore) Touch(_ context.Context, key string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touches++
	if c, ok := f.rows[key]; ok {
		c.AccessCount++
		c.LastAccessed = at
		f.rows[key] = c
	}
	return nil
}

func (f *fakeStore) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k, c := range f.rows {
		if c.CachedAt.Before(before) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Clear(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.rows)
	f.rows = map[string]model.CachedResult{}
	return n, nil
}

func (f *fakeStore) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows), nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

var _ store.Store = (*fakeStore)(nil)

func result(first, last string) model.ParsedName {
	return model.ParsedName{
		FirstName:         first,
		LastName:          last,
		EntityType:        model.EntityPerson,
		Gender:            model.GenderMale,
		ParsingConfidence: 0.85,
		ParsingMethod:     model.MethodFallback,
		Warnings:          []string{},
	}
}

func newTestManager(t *testing.T, cfg Config, st store.Store) (*Manager, *time.Time) {
	t.Helper()
	cfg.Retry = resilience.Backoff{MaxAttempts: 1}
	m, err := New(cfg, st)
	require.NoError(t, err)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	m.lastFlush = now
	return m, &now
}

func TestManager_PutGet(t *testing.T) {
	m, _ := newTestManager(t, Config{}, nil)
	ctx := context.Background()

	r := result("John", "Smith")
	m.Put(ctx, "Smith John", r)

	got := m.Get(ctx, "Smith John")
	require.NotNil(t, got)
	assert.Equal(t, r, got.Result)
	assert.Equal(t, "smith john", got.NormalizedName)
	assert.Equal(t, 1, got.AccessCount)

	assert.Nil(t, m.Get(ctx, "Jones Mary"))

	s := m.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.InDelta(t, 0.5, s.HitRate, 0.0001)
}

func TestManager_ReturnsCopies(t *testing.T) {
	m, _ := newTestManager(t, Config{}, nil)
	ctx := context.Background()

	m.Put(ctx, "Smith John", result("John", "Smith"))
	got := m.Get(ctx, "Smith John")
	require.NotNil(t, got)
	got.Result.FirstName = "Changed"
	got.Result.Warnings = append(got.Result.Warnings, "x")

	again := m.Get(ctx, "Smith John")
	assert.Equal(t, "John", again.Result.FirstName)
	assert.Empty(t, again.Result.Warnings)
}

func TestManager_LRUEviction(t *testing.T) {
	m, _ := newTestManager(t, Config{MaxMemory: 3}, nil)
	ctx := context.Background()

	m.Put(ctx, "Smith John", result("John", "Smith"))
	m.Put(ctx, "Jones Mary", result("Mary", "Jones"))
	m.Put(ctx, "Brown Bob", result("Bob", "Brown"))

	// Keep Smith hot so Jones becomes least recently used.
	require.NotNil(t, m.Get(ctx, "Smith John"))
	m.Put(ctx, "Uhl Judy", result("Judy", "Uhl"))

	assert.Nil(t, m.Get(ctx, "Jones Mary"))
	assert.NotNil(t, m.Get(ctx, "Smith John"))
	assert.NotNil(t, m.Get(ctx, "Brown Bob"))
	assert.NotNil(t, m.Get(ctx, "Uhl Judy"))

	s := m.Stats()
	assert.Equal(t, int64(1), s.Evictions)
	assert.Equal(t, 3, s.MemorySize)
}

func TestManager_DuplicateDetection(t *testing.T) {
	m, _ := newTestManager(t, Config{}, nil)
	ctx := context.Background()

	m.Put(ctx, "Smith, John", result("John", "Smith"))
	m.Put(ctx, "smith john", result("Wrong", "Value"))
	m.Put(ctx, "smith john", result("Wrong", "Value"))

	s := m.Stats()
	assert.Equal(t, 1, s.MemorySize)
	assert.Equal(t, int64(1), s.DuplicateDetections)
	assert.Len(t, m.index["smith john"].aliases, 2)

	got := m.Get(ctx, "SMITH JOHN")
	require.NotNil(t, got)
	assert.Equal(t, "John", got.Result.FirstName)
}

func TestManager_TTL(t *testing.T) {
	m, now := newTestManager(t, Config{TTL: 24 * time.Hour}, nil)
	ctx := context.Background()

	m.Put(ctx, "Smith John", result("John", "Smith"))
	*now = now.Add(25 * time.Hour)

	assert.Nil(t, m.Get(ctx, "Smith John"))
	// Expired entries stay until the sweep.
	assert.Equal(t, 1, m.Stats().MemorySize)

	// A fresh put replaces the expired entry.
	m.Put(ctx, "Smith John", result("Jon", "Smith"))
	got := m.Get(ctx, "Smith John")
	require.NotNil(t, got)
	assert.Equal(t, "Jon", got.Result.FirstName)
}

func TestManager_BatchedFlush(t *testing.T) {
	st := newFakeStore()
	m, _ := newTestManager(t, Config{FlushBatchSize: 3}, st)
	ctx := context.Background()

	m.Put(ctx, "Smith John", result("John", "Smith"))
	m.Put(ctx, "Jones Mary", result("Mary", "Jones"))
	assert.Equal(t, 0, st.putCalls)
	assert.Equal(t, 2, m.Stats().PendingWrites)

	m.Put(ctx, "Brown Bob", result("Bob", "Brown"))
	assert.Equal(t, 1, st.putCalls)
	assert.Equal(t, 0, m.Stats().PendingWrites)
	n, _ := st.Count(ctx)
	assert.Equal(t, 3, n)
}

func TestManager_FlushOnInterval(t *testing.T) {
	st := newFakeStore()
	m, now := newTestManager(t, Config{FlushBatchSize: 100, FlushInterval: 30 * time.Second}, st)
	ctx := context.Background()

	m.Put(ctx, "Smith John", result("John", "Smith"))
	assert.Equal(t, 0, st.putCalls)

	*now = now.Add(31 * time.Second)
	m.Put(ctx, "Jones Mary", result("Mary", "Jones"))
	assert.Equal(t, 1, st.putCalls)
	assert.Zero(t, m.Stats().PendingWrites)
}

func TestManager_ForceFlush(t *testing.T) {
	st := newFakeStore()
	m, _ := newTestManager(t, Config{FlushBatchSize: 100}, st)
	ctx := context.Background()

	m.Put(ctx, "Smith John", result("John", "Smith"))
	require.NotNil(t, m.Get(ctx, "Smith John"))
	require.NoError(t, m.ForceFlush(ctx))

	n, _ := st.Count(ctx)
	assert.Equal(t, 1, n)
	for _, c := range st.rows {
		assert.Equal(t, 1, c.AccessCount)
	}
}

func TestManager_PromotesFromStore(t *testing.T) {
	st := newFakeStore()
	ctx := context.Background()

	first, _ := newTestManager(t, Config{FlushBatchSize: 1}, st)
	first.Put(ctx, "Smith John", result("John", "Smith"))

	second, _ := newTestManager(t, Config{}, st)
	got := second.Get(ctx, "smith, john")
	require.NotNil(t, got)
	assert.Equal(t, "John", got.Result.FirstName)
	assert.Equal(t, 1, second.Stats().MemorySize)
	assert.Equal(t, int64(1), second.Stats().Hits)
}

func TestManager_StoreHitTouchesRow(t *testing.T) {
	st := newFakeStore()
	ctx := context.Background()

	first, _ := newTestManager(t, Config{FlushBatchSize: 1}, st)
	first.Put(ctx, "Smith John", result("John", "Smith"))
	require.Equal(t, 1, st.putCalls)

	second, now := newTestManager(t, Config{}, st)
	require.NotNil(t, second.Get(ctx, "Smith John"))
	assert.Equal(t, 1, st.touches)

	row, err := st.Get(ctx, first.Get(ctx, "Smith John").Key)
	require.NoError(t, err)
	assert.Equal(t, 1, row.AccessCount)
	assert.Equal(t, *now, row.LastAccessed)

	// The touched entry is clean, so nothing is written back.
	require.NoError(t, second.ForceFlush(ctx))
	assert.Equal(t, 1, st.putCalls)
}

func TestManager_TouchFailureWritesBack(t *testing.T) {
	st := newFakeStore()
	ctx := context.Background()

	first, _ := newTestManager(t, Config{FlushBatchSize: 1}, st)
	first.Put(ctx, "Smith John", result("John", "Smith"))

	st.touchErr = errors.New("database is locked")
	second, _ := newTestManager(t, Config{}, st)
	got := second.Get(ctx, "Smith John")
	require.NotNil(t, got)
	assert.Equal(t, int64(1), second.Stats().StoreErrors)

	require.NoError(t, second.ForceFlush(ctx))
	assert.Equal(t, 2, st.putCalls)
	row, err := st.Get(ctx, got.Key)
	require.NoError(t, err)
	assert.Equal(t, 1, row.AccessCount)
}

func TestManager_MemoryOnlyEvictionStaysBounded(t *testing.T) {
	m, _ := newTestManager(t, Config{MaxMemory: 2}, nil)
	ctx := context.Background()

	for i := range 1000 {
		name := fmt.Sprintf("Owner%d John", i)
		m.Put(ctx, name, result("John", fmt.Sprintf("Owner%d", i)))
		require.NotNil(t, m.Get(ctx, name))
	}

	s := m.Stats()
	assert.Equal(t, 2, s.MemorySize)
	assert.Zero(t, s.PendingWrites)
	assert.Equal(t, int64(998), s.Evictions)
	assert.Nil(t, m.Get(ctx, "Owner0 John"))
}

func TestManager_ReadsPendingBuffer(t *testing.T) {
	st := newFakeStore()
	m, _ := newTestManager(t, Config{MaxMemory: 1, FlushBatchSize: 100}, st)
	ctx := context.Background()

	m.Put(ctx, "Smith John", result("John", "Smith"))
	m.Put(ctx, "Jones Mary", result("Mary", "Jones"))

	got := m.Get(ctx, "Smith John")
	require.NotNil(t, got)
	assert.Equal(t, "John", got.Result.FirstName)
	assert.Equal(t, 0, st.putCalls)
}

func TestManager_StoreFailureIsMiss(t *testing.T) {
	st := newFakeStore()
	st.getErr = errors.New("disk unavailable")
	m, _ := newTestManager(t, Config{}, st)

	assert.Nil(t, m.Get(context.Background(), "Smith John"))
	s := m.Stats()
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, int64(1), s.StoreErrors)
}

func TestManager_FlushFailureKeepsPending(t *testing.T) {
	st := newFakeStore()
	st.putErr = errors.New("read-only file system")
	m, _ := newTestManager(t, Config{FlushBatchSize: 100}, st)
	ctx := context.Background()

	m.Put(ctx, "Smith John", result("John", "Smith"))
	err := m.ForceFlush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache: flush")
	assert.Equal(t, 1, m.Stats().PendingWrites)

	st.putErr = nil
	require.NoError(t, m.ForceFlush(ctx))
	assert.Zero(t, m.Stats().PendingWrites)
}

func TestManager_CleanupExpired(t *testing.T) {
	st := newFakeStore()
	m, now := newTestManager(t, Config{TTL: time.Hour, FlushBatchSize: 1}, st)
	ctx := context.Background()

	m.Put(ctx, "Smith John", result("John", "Smith"))
	*now = now.Add(2 * time.Hour)
	m.Put(ctx, "Jones Mary", result("Mary", "Jones"))

	n, err := m.CleanupExpired(ctx)
	require.NoError(t, err)
	// One from memory, one from the store.
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, m.Stats().MemorySize)
	assert.Zero(t, m.Stats().Evictions)
	assert.NotNil(t, m.Get(ctx, "Jones Mary"))
}

func TestManager_ClearAll(t *testing.T) {
	st := newFakeStore()
	m, _ := newTestManager(t, Config{FlushBatchSize: 1}, st)
	ctx := context.Background()

	m.Put(ctx, "Smith John", result("John", "Smith"))
	require.NoError(t, m.ClearAll(ctx))

	assert.Zero(t, m.Stats().MemorySize)
	assert.Nil(t, m.Get(ctx, "Smith John"))
	n, _ := st.Count(ctx)
	assert.Zero(t, n)
}

func TestManager_BatchGet(t *testing.T) {
	m, _ := newTestManager(t, Config{}, nil)
	ctx := context.Background()
	m.Put(ctx, "Smith John", result("John", "Smith"))

	got := m.BatchGet(ctx, []string{"Smith John", "Jones Mary", "Smith John"})
	require.Len(t, got, 2)
	assert.NotNil(t, got["Smith John"])
	assert.Nil(t, got["Jones Mary"])
}

func TestManager_SQLitePersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	st, err := store.Open(ctx, "sqlite", path)
	require.NoError(t, err)
	m, err := New(Config{FlushBatchSize: 100}, st)
	require.NoError(t, err)
	m.Put(ctx, "Uhl Judy", result("Judy", "Uhl"))
	require.NoError(t, m.ForceFlush(ctx))
	require.NoError(t, st.Close())

	st2, err := store.Open(ctx, "sqlite", path)
	require.NoError(t, err)
	defer st2.Close() //nolint:errcheck
	m2, err := New(Config{}, st2)
	require.NoError(t, err)

	got := m2.Get(ctx, "UHL JUDY")
	require.NotNil(t, got)
	assert.Equal(t, "Judy", got.Result.FirstName)
}

func TestManager_Concurrent(t *testing.T) {
	st := newFakeStore()
	m, err := New(Config{MaxMemory: 50, FlushBatchSize: 10}, st)
	require.NoError(t, err)
	ctx := context.Background()

	faker := gofakeit.New(7)
	names := make([]string, 200)
	for i := range names {
		names[i] = faker.LastName() + " " + faker.FirstName()
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(names); i += 8 {
				if m.Get(ctx, names[i]) == nil {
					m.Put(ctx, names[i], result("A", "B"))
				}
				m.Get(ctx, names[(i+1)%len(names)])
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, m.ForceFlush(ctx))

	s := m.Stats()
	assert.LessOrEqual(t, s.MemorySize, 50)
	assert.Zero(t, s.PendingWrites)
	assert.Equal(t, int64(400), s.Hits+s.Misses)
}
