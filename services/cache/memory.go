package cache

import (
	"sync"
	"time"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryService implements CacheService in process memory.
// It is used when no memcache server is configured.
type MemoryService struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemoryService creates an empty in-process cache
func NewMemoryService() *MemoryService {
	return &MemoryService{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

// Get retrieves a value, evicting it first when it has expired
func (m *MemoryService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !item.expiresAt.IsZero() && !m.now().Before(item.expiresAt) {
		delete(m.items, key)
		return nil, ErrCacheMiss
	}

	value := make([]byte, len(item.value))
	copy(value, item.value)
	return value, nil
}

// Set stores a copy of value. A non-positive expiration never expires.
func (m *MemoryService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := memoryItem{value: make([]byte, len(value))}
	copy(item.value, value)
	if expiration > 0 {
		item.expiresAt = m.now().Add(expiration)
	}
	m.items[key] = item
	return nil
}

// Delete removes a value
func (m *MemoryService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}
