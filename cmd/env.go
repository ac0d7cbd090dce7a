package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/manuid/manuid/internal/enrich"
	"github.com/manuid/manuid/internal/fetcher"
	"github.com/manuid/manuid/internal/ingest"
	"github.com/manuid/manuid/internal/vendor"
	"github.com/manuid/manuid/pkg/anthropic"
)

// openStore builds the configured storage backend. The memory driver exists
// for local development and demos; production runs on postgres.
func openStore(ctx context.Context) (vendor.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return vendor.NewMemory(), nil
	case "postgres":
		return vendor.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns, cfg.Store.MinConns)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

func newFetcher() *fetcher.Fetcher {
	return fetcher.New(fetcher.Options{
		Allowlist: cfg.Scrape.Allowlist,
		Timeout:   time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
		MaxBytes:  cfg.Scrape.MaxHTMLBytes,
		UserAgent: cfg.Scrape.UserAgent,
	})
}

// newEnricher returns nil when enrichment is disabled; the pipeline treats
// a nil enricher as a no-op.
func newEnricher() enrich.Enricher {
	if !cfg.Enrich.Enabled || cfg.Enrich.APIKey == "" {
		return nil
	}
	return enrich.NewClaude(anthropic.NewClient(cfg.Enrich.APIKey), cfg.Enrich.Model)
}

func newPipeline(store vendor.Store) *ingest.Pipeline {
	return ingest.New(store, newFetcher(), newEnricher())
}
