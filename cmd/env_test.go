package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/manuid/manuid/internal/config"
)

func init() {
	// Replace global logger with a no-op to avoid nil pointer panics in tests.
	zap.ReplaceGlobals(zap.NewNop())
}

func TestOpenStoreMemory(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "memory"}}

	store, err := openStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.NoError(t, store.Close())
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "sqlite"}}

	_, err := openStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestNewFetcherUsesScrapeConfig(t *testing.T) {
	cfg = &config.Config{Scrape: config.ScrapeConfig{
		Allowlist:    []string{"suppliers.example"},
		TimeoutSecs:  5,
		MaxHTMLBytes: 1024,
		UserAgent:    "TestBot/1.0",
	}}

	f := newFetcher()
	require.NotNil(t, f)
}

func TestNewEnricherDisabled(t *testing.T) {
	cfg = &config.Config{Enrich: config.EnrichConfig{Enabled: false}}
	assert.Nil(t, newEnricher())

	cfg = &config.Config{Enrich: config.EnrichConfig{Enabled: true, APIKey: ""}}
	assert.Nil(t, newEnricher())
}
