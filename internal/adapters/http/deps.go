package http

import (
	"context"

	"github.com/samirrijal/sgrent/internal/core/usecases"
)

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connector reports broker connectivity.
type Connector interface {
	Connected() bool
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Stations  *usecases.StationService
	Addresses *usecases.AddressService
	Quotes    *usecases.QuoteService
	Feed      *QuoteFeed
	NATS      Connector
	DB        Pinger
	Cache     Pinger

	// CORSOrigins is a comma separated allow list. Empty allows any origin.
	CORSOrigins string

	// OpenAPIPath overrides DefaultOpenAPIPath.
	OpenAPIPath string
}
