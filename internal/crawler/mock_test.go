package crawler

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache       map[string][]byte
	expirations map[string]time.Duration
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache:       make(map[string][]byte),
		expirations: make(map[string]time.Duration),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, &mockError{message: "cache miss"}
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	m.expirations[key] = expiration
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}

// MockFetcher serves page text from a map keyed by URL
type MockFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		pages: make(map[string]string),
		errs:  make(map[string]error),
	}
}

func (m *MockFetcher) FetchText(_ context.Context, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, url)
	if err, ok := m.errs[url]; ok {
		return "", err
	}
	if text, ok := m.pages[url]; ok {
		return text, nil
	}
	return "", errors.New("page not found")
}
