package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/sgrent/internal/adapters/memcache"
	natsadapter "github.com/samirrijal/sgrent/internal/adapters/nats"
	"github.com/samirrijal/sgrent/internal/adapters/onemap"
	"github.com/samirrijal/sgrent/internal/adapters/postgres"
	"github.com/samirrijal/sgrent/internal/core/catalog"
	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/core/usecases"
	"github.com/samirrijal/sgrent/internal/pkg/config"
	"github.com/samirrijal/sgrent/internal/pkg/logging"
	"github.com/samirrijal/sgrent/internal/workflows"
)

const service = "sgrent-quoter"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: quoter <worker|submit items.json>")
	}

	cfg, err := config.Load(service)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(service, "info", "json")

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	switch os.Args[1] {
	case "worker":
		runWorker(c, cfg)
	case "submit":
		if len(os.Args) < 3 {
			log.Fatal("usage: quoter submit items.json")
		}
		submit(c, cfg, os.Args[2])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runWorker(c client.Client, cfg *config.Config) {
	ctx := context.Background()

	stationCatalog, err := catalog.Load()
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	geocoder := onemap.New(cfg.OneMap.Token,
		onemap.WithBaseURL(cfg.OneMap.BaseURL),
		onemap.WithBuffer(cfg.OneMap.Buffer),
		onemap.WithTimeout(cfg.OneMap.Timeout()),
	)
	addresses := usecases.NewAddressService(geocoder, memcache.New(cfg.Cache.LocalSize), nil,
		cfg.OneMap.Timeout(), cfg.Cache.AddressTTL)
	// Events go out through the PublishQuotes activity, not the service.
	quotes := usecases.NewQuoteService(usecases.NewStationService(stationCatalog), addresses, nil)

	acts := &workflows.QuoteActivities{Quotes: quotes}
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		acts.Log = postgres.NewQuoteRepo(db)
	}
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
		defer pub.Close()
		acts.Publisher = pub
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.BatchQuoteWorkflow)
	w.RegisterActivity(acts)

	slog.Info("quoter worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// submit starts a batch from a JSON array of rent inputs and waits for it.
func submit(c client.Client, cfg *config.Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	var items []domain.RentInputs
	if err := json.Unmarshal(data, &items); err != nil {
		log.Fatalf("parse %s: %v", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	batchID := uuid.NewString()
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "batch-quote-" + batchID,
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.BatchQuoteWorkflow, workflows.BatchQuoteInput{BatchID: batchID, Items: items})
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}
	slog.Info("batch submitted", "batch_id", batchID, "workflow_id", run.GetID(), "run_id", run.GetRunID())

	var res workflows.BatchQuoteResult
	if err := run.Get(ctx, &res); err != nil {
		log.Fatalf("batch failed: %v", err)
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
}
