package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

// MemoryStore is a process-wide cache with time-based expiry and
// LRU-by-access eviction. It satisfies the same repository contract as the
// Redis-backed cache so deployments without Redis keep response caching.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
	maxSize int
	now     func() time.Time
}

type memoryEntry struct {
	key       string
	payload   []byte
	expiresAt time.Time
}

// NewMemoryStore builds an in-process cache holding at most maxSize entries.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &MemoryStore{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get retrieves and unmarshals the cached value. Expiry is checked before
// returning; expired entries are dropped and reported as a miss.
func (s *MemoryStore) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	elem, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return appErrors.ErrCacheMiss
	}
	entry := elem.Value.(*memoryEntry)
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.order.Remove(elem)
		delete(s.entries, key)
		s.mu.Unlock()
		return appErrors.ErrCacheMiss
	}
	s.order.MoveToFront(elem)
	payload := entry.payload
	s.mu.Unlock()

	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores the value with the given TTL, evicting the least recently used
// entry when the store is full.
func (s *MemoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[key]; ok {
		entry := elem.Value.(*memoryEntry)
		entry.payload = payload
		entry.expiresAt = expiresAt
		s.order.MoveToFront(elem)
		return nil
	}

	for len(s.entries) >= s.maxSize {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*memoryEntry).key)
	}

	s.entries[key] = s.order.PushFront(&memoryEntry{key: key, payload: payload, expiresAt: expiresAt})
	return nil
}

// DeleteByPattern removes entries whose key matches the glob pattern.
func (s *MemoryStore) DeleteByPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, elem := range s.entries {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return fmt.Errorf("match cache pattern %s: %w", pattern, err)
		}
		if matched {
			s.order.Remove(elem)
			delete(s.entries, key)
		}
	}
	return nil
}

// Len reports the number of live entries, counting expired-but-unswept ones.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
