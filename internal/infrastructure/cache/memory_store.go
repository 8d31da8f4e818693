package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// MemoryStore implements Store in process memory. Entries are not shared
// between instances.
type MemoryStore struct {
	entries sync.Map // map[string]*memoryEntry
	logger  *zap.Logger
	now     func() time.Time
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e *memoryEntry) isExpired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryStore creates an in-memory store and starts its cleanup loop
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MemoryStore{
		logger: logger,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	go s.cleanupExpired()
	return s
}

// Get returns the value stored under key
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if value, ok := s.entries.Load(key); ok {
		entry := value.(*memoryEntry)
		if !entry.isExpired(s.now()) {
			atomic.AddInt64(&s.hits, 1)
			return entry.value, nil
		}
		s.entries.Delete(key)
	}
	atomic.AddInt64(&s.misses, 1)
	return nil, ErrMiss
}

// Set stores value under key. A zero ttl never expires.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := &memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries.Store(key, entry)
	return nil
}

// Delete removes keys
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.entries.Delete(k)
	}
	return nil
}

// Stats returns hit and miss counters
func (s *MemoryStore) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses)
}

// Close stops the cleanup loop. Safe to call more than once.
func (s *MemoryStore) Close() error {
	if atomic.CompareAndSwapInt32(&s.stopped, 0, 1) {
		close(s.stopCh)
	}
	return nil
}

func (s *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if removed := s.doCleanup(); removed > 0 {
				s.logger.Debug("Cache cleanup completed", zap.Int("removed", removed))
			}
		}
	}
}

func (s *MemoryStore) doCleanup() int {
	now := s.now()
	removed := 0
	s.entries.Range(func(key, value any) bool {
		if value.(*memoryEntry).isExpired(now) {
			s.entries.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

var _ Store = (*MemoryStore)(nil)
