package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AnshulAlgoS/AtenFlux/internal/collector"
	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/discovery"
	"github.com/AnshulAlgoS/AtenFlux/internal/fetcher"
	"github.com/AnshulAlgoS/AtenFlux/internal/jobs"
	"github.com/AnshulAlgoS/AtenFlux/internal/nlp"
	"github.com/AnshulAlgoS/AtenFlux/internal/observability"
	"github.com/AnshulAlgoS/AtenFlux/internal/profile"
	"github.com/AnshulAlgoS/AtenFlux/internal/resolver"
	"github.com/AnshulAlgoS/AtenFlux/internal/search"
	"github.com/AnshulAlgoS/AtenFlux/internal/storage"
)

// app holds every wired component of one process.
type app struct {
	cfg      *config.Config
	fetcher  fetcher.Fetcher
	resolver *resolver.Resolver
	store    storage.ProfileStore
	jobs     jobs.Store
	orch     *jobs.Orchestrator
	metrics  *observability.Metrics
	logger   *slog.Logger

	// mongoClient is set when the job store opened its own connection.
	mongoClient *mongo.Client
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: observability.NewMetrics(logger)}

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	if cfg.Fetcher.PolitenessDelay > 0 {
		f = fetcher.NewThrottled(f, cfg.Fetcher.PolitenessDelay, logger)
	}
	a.fetcher = f

	client, err := search.NewClient(cfg.Search, f, cfg.Fetcher.RequestTimeout, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create search client: %w", err)
	}
	a.resolver = resolver.New(client, f, cfg, logger)

	if a.store, err = storage.New(cfg.Storage, logger); err != nil {
		a.close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if a.jobs, err = a.openJobStore(); err != nil {
		a.close()
		return nil, fmt.Errorf("open job store: %w", err)
	}

	articles := collector.New(f, client, cfg, logger)
	pipe := jobs.Pipeline{
		Resolver:   a.resolver,
		Discoverer: discovery.New(f, articles, cfg, logger),
		Profiles:   profile.New(f, client, cfg, logger),
		Enricher:   nlp.NewEnricher(),
		Store:      a.store,
	}
	a.orch = jobs.New(pipe, a.jobs, cfg, a.metrics, logger)

	logger.Info("components ready",
		"fetcher", f.Type(),
		"storage", a.store.Name(),
		"job_store", cfg.Jobs.Store,
		"search", cfg.Search.Providers,
	)
	return a, nil
}

// openJobStore reuses the profile store's Mongo connection when both live
// in MongoDB.
func (a *app) openJobStore() (jobs.Store, error) {
	switch a.cfg.Jobs.Store {
	case "memory", "":
		return jobs.NewMemoryStore(a.cfg.Jobs.SweepInterval), nil
	case "mongo":
		if ms, ok := a.store.(*storage.MongoStore); ok {
			return jobs.NewMongoStore(ms.Client(), a.cfg.Storage.Database, a.logger)
		}
		client, err := storage.Connect(a.cfg.Storage.MongoURI)
		if err != nil {
			return nil, err
		}
		a.mongoClient = client
		return jobs.NewMongoStore(client, a.cfg.Storage.Database, a.logger)
	default:
		return nil, fmt.Errorf("unsupported job store %q", a.cfg.Jobs.Store)
	}
}

// close shuts down the orchestrator and releases every backend.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if a.orch != nil {
		if err := a.orch.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown jobs: %w", err))
		}
	}
	if a.jobs != nil {
		errs = append(errs, a.jobs.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.mongoClient != nil {
		errs = append(errs, a.mongoClient.Disconnect(ctx))
	}
	if a.fetcher != nil {
		errs = append(errs, a.fetcher.Close())
	}
	return errors.Join(errs...)
}
