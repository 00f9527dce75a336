package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/sgrent/internal/adapters/http"
	"github.com/samirrijal/sgrent/internal/adapters/memcache"
	natsadapter "github.com/samirrijal/sgrent/internal/adapters/nats"
	"github.com/samirrijal/sgrent/internal/adapters/onemap"
	"github.com/samirrijal/sgrent/internal/adapters/postgres"
	"github.com/samirrijal/sgrent/internal/adapters/redis"
	"github.com/samirrijal/sgrent/internal/adapters/valkey"
	"github.com/samirrijal/sgrent/internal/core/catalog"
	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/core/ports"
	"github.com/samirrijal/sgrent/internal/core/usecases"
	"github.com/samirrijal/sgrent/internal/pkg/config"
	"github.com/samirrijal/sgrent/internal/pkg/logging"
	"github.com/samirrijal/sgrent/internal/pkg/report"
	"github.com/samirrijal/sgrent/internal/pkg/telemetry"
)

const service = "sgrent-api"

func main() {
	cfg, err := config.Load(service)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(service, logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Error reporting
	var reporter ports.ErrorReporter
	if ok, err := report.Setup(cfg.Sentry.DSN, cfg.Sentry.Environment, service); err != nil {
		slog.Warn("sentry init failed", "error", err)
	} else if ok {
		reporter = report.NewReporter(sentry.CurrentHub())
		defer report.Flush()
	}

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	deps := &http.Dependencies{CORSOrigins: cfg.Server.CORSOrigins}

	// Database
	var db *postgres.DB
	if cfg.Database.Enabled {
		db, err = postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		deps.DB = db
	}

	// Station catalog
	stationCatalog, err := loadCatalog(ctx, cfg.Catalog.Source, db)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	slog.Info("station catalog loaded", "source", cfg.Catalog.Source, "stations", stationCatalog.Len())

	// Cache
	cache := openCache(cfg.Cache, deps)
	if closer, ok := cache.(interface{ Close() }); ok {
		defer closer.Close()
	}

	// NATS
	var publisher ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
			deps.NATS = pub
		}

		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			feed := http.NewQuoteFeed()
			if err := sub.SubscribeQuotes(ctx, feed.Publish); err != nil {
				slog.Warn("quote feed subscription failed", "error", err)
			} else {
				deps.Feed = feed
			}
		}
	}

	// Use cases
	geocoder := onemap.New(cfg.OneMap.Token,
		onemap.WithBaseURL(cfg.OneMap.BaseURL),
		onemap.WithBuffer(cfg.OneMap.Buffer),
		onemap.WithTimeout(cfg.OneMap.Timeout()),
	)
	deps.Stations = usecases.NewStationService(stationCatalog)
	deps.Addresses = usecases.NewAddressService(geocoder, cache, reporter, cfg.OneMap.Timeout(), cfg.Cache.AddressTTL)
	deps.Quotes = usecases.NewQuoteService(deps.Stations, deps.Addresses, publisher)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		AppName:      "sgrent API",
	})

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// loadCatalog reads the stations from the embedded list or the stations table.
func loadCatalog(ctx context.Context, source string, db *postgres.DB) (*catalog.Catalog, error) {
	if source != config.CatalogPostgres {
		return catalog.Load()
	}
	stations, err := postgres.NewStationRepo(db).List(ctx)
	if err != nil {
		return nil, err
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("stations table is empty: %w", domain.ErrNoStationsAvailable)
	}
	return catalog.New(stations)
}

// openCache builds the address cache. Remote drivers sit behind an
// in-process tier; an unreachable remote falls back to memory only.
func openCache(cfg config.CacheConfig, deps *http.Dependencies) ports.CacheService {
	local := memcache.New(cfg.LocalSize)
	localTTL := int(cfg.LocalTTL.Seconds())

	switch cfg.Driver {
	case config.CacheValkey:
		c, err := valkey.New(cfg.Addr, cfg.Prefix)
		if err != nil {
			slog.Warn("valkey unavailable, using memory cache", "error", err)
			return local
		}
		deps.Cache = c
		return &closingTiered{Tiered: memcache.NewTiered(local, c, localTTL), close: c.Close}
	case config.CacheRedis:
		c := redisadapter.New(cfg.Addr, cfg.Prefix)
		deps.Cache = c
		return &closingTiered{Tiered: memcache.NewTiered(local, c, localTTL), close: c.Close}
	default:
		return local
	}
}

type closingTiered struct {
	*memcache.Tiered
	close func()
}

func (c *closingTiered) Close() { c.close() }
