package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/core/ports"
)

// --- Mock ReverseGeocoder ---

type mockGeocoder struct {
	mu        sync.Mutex
	calls     int
	reverseFn func(ctx context.Context, p domain.ProjectedPoint) ([]domain.GeocodeCandidate, error)
}

func (m *mockGeocoder) Name() string { return "mock" }

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, p domain.ProjectedPoint) ([]domain.GeocodeCandidate, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.reverseFn != nil {
		return m.reverseFn(ctx, p)
	}
	return nil, nil
}

func (m *mockGeocoder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Mock CacheService ---

type mockCache struct {
	mu    sync.Mutex
	data  map[string][]byte
	ttls  map[string]int
	getFn func(ctx context.Context, key string) ([]byte, error)
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock ErrorReporter ---

type mockReporter struct {
	mu   sync.Mutex
	errs []error
}

func (m *mockReporter) Report(ctx context.Context, err error, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
}

func (m *mockReporter) Reported() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.errs...)
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	published []*domain.Quote
	publishFn func(ctx context.Context, q *domain.Quote) error
}

func (m *mockPublisher) PublishQuote(ctx context.Context, q *domain.Quote) error {
	m.mu.Lock()
	m.published = append(m.published, q)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, q)
	}
	return nil
}

func (m *mockPublisher) Published() []*domain.Quote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Quote(nil), m.published...)
}
