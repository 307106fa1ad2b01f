package querycache

import (
	"context"
	"sync"
	"time"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
)

type memEntry struct {
	mu    sync.Mutex
	entry model.QueryCacheEntry
}

// MemoryStore shares one map between readers; only hits on the same key
// contend on that entry's mutex.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memEntry)}
}

func (m *MemoryStore) Hit(ctx context.Context, key string, now time.Time) (*model.QueryCacheEntry, bool, error) {
	m.mu.RLock()
	item, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	item.mu.Lock()
	if item.entry.ExpiredAt(now) {
		item.mu.Unlock()
		m.evict(key, item)
		return nil, false, nil
	}
	item.entry.HitCount++
	item.entry.LastAccessedAt = now
	out := copyEntry(&item.entry)
	item.mu.Unlock()
	return out, true, nil
}

func (m *MemoryStore) evict(key string, item *memEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.entries[key]; ok && current == item {
		delete(m.entries, key)
	}
}

func (m *MemoryStore) Put(ctx context.Context, entry *model.QueryCacheEntry) error {
	item := &memEntry{entry: *copyEntry(entry)}
	m.mu.Lock()
	m.entries[entry.Key] = item
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key, item := range m.entries {
		item.mu.Lock()
		expired := item.entry.ExpiredAt(now)
		item.mu.Unlock()
		if expired {
			delete(m.entries, key)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func copyEntry(entry *model.QueryCacheEntry) *model.QueryCacheEntry {
	out := *entry
	if entry.Response != nil {
		out.Response = append([]byte(nil), entry.Response...)
	}
	if entry.QueryVector != nil {
		out.QueryVector = append([]float32(nil), entry.QueryVector...)
	}
	return &out
}

var _ Store = (*MemoryStore)(nil)
