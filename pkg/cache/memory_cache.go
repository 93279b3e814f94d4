// -----------------------------------------------------------------------------
// Memory Cache Driver
// -----------------------------------------------------------------------------
// In-memory cache implementation (non-persistent, single-process).
//
// Local çalıştırma ve testler için. Süresi dolan entry'ler okunurken yok
// sayılır, arka plandaki temizleyici tarafından silinir.
// -----------------------------------------------------------------------------

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

const defaultSweepInterval = 5 * time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero value = süresiz
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache, thread-safe in-memory cache.
type MemoryCache struct {
	mu     sync.RWMutex
	store  map[string]memoryEntry
	logger *logger.Logger
	now    func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache, temizleyicisi çalışan yeni bir MemoryCache döner.
// İş bitince Close çağrılmalıdır.
func NewMemoryCache(log *logger.Logger) *MemoryCache {
	return newMemoryCache(log, time.Now, defaultSweepInterval)
}

func newMemoryCache(log *logger.Logger, now func() time.Time, sweepEvery time.Duration) *MemoryCache {
	m := &MemoryCache{
		store:  make(map[string]memoryEntry),
		logger: log,
		now:    now,
		stop:   make(chan struct{}),
	}
	go m.sweepLoop(sweepEvery)
	return m
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.store[key]
	m.mu.RUnlock()

	if !ok || entry.expired(m.now()) {
		return nil, false, nil
	}
	// Çağıran dönen slice'ı değiştirse bile saklanan değer bozulmaz.
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.store[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.store, key)
	}
	m.mu.Unlock()
	return nil
}

// Len, süresi dolmuş olanlar dahil saklanan entry sayısı.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

// Close, temizleyiciyi durdurur. Birden fazla çağrılabilir.
func (m *MemoryCache) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *MemoryCache) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep, süresi dolmuş entry'leri siler ve silinen sayısını döner.
func (m *MemoryCache) sweep() int {
	now := m.now()

	m.mu.Lock()
	cleaned := 0
	for key, entry := range m.store {
		if entry.expired(now) {
			delete(m.store, key)
			cleaned++
		}
	}
	m.mu.Unlock()

	if cleaned > 0 {
		m.logger.Debug("memory cache sweep", "removed", cleaned)
	}
	return cleaned
}
