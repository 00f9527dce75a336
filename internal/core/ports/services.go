package ports

import (
	"context"
	"errors"

	"github.com/samirrijal/sgrent/internal/core/domain"
)

// ErrCacheMiss is returned by CacheService.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// ReverseGeocoder resolves a projected point to nearby buildings.
type ReverseGeocoder interface {
	Name() string
	ReverseGeocode(ctx context.Context, p domain.ProjectedPoint) ([]domain.GeocodeCandidate, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishQuote(ctx context.Context, q *domain.Quote) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeQuotes(ctx context.Context, handler func(ctx context.Context, q *domain.Quote) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// ErrorReporter ships unexpected errors to an external tracker.
type ErrorReporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}
