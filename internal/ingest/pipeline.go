// Package ingest orchestrates one ingestion request: fetch, extract, dedup,
// taxonomy resolution, confidence estimation, and the transactional merge
// into the vendor registry.
package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/manuid/manuid/internal/enrich"
	"github.com/manuid/manuid/internal/extract"
	"github.com/manuid/manuid/internal/fetcher"
	"github.com/manuid/manuid/internal/vendor"
)

// ParserVersion tags SourceRecords written by this extractor generation.
const ParserVersion = "1.0"

// Request is one ingestion call.
type Request struct {
	SourceURL        string          `json:"source_url"`
	SourceName       string          `json:"source_name,omitempty"`
	ProductTypeQuery string          `json:"product_type_query"`
	Role             vendor.LinkRole `json:"role,omitempty"`
	DryRun           bool            `json:"dry_run,omitempty"`
}

// Response summarizes one ingestion call.
type Response struct {
	SourceID          *int64 `json:"source_id"`
	InsertedCompanies int    `json:"inserted_companies"`
	UpdatedCompanies  int    `json:"updated_companies"`
	SkippedRows       int    `json:"skipped_rows"`
	Message           string `json:"message"`
}

// Fetcher retrieves one page. *fetcher.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Result, error)
}

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	store    vendor.Store
	fetcher  Fetcher
	enricher enrich.Enricher
}

// New creates a Pipeline. A nil enricher disables enrichment.
func New(store vendor.Store, f Fetcher, enricher enrich.Enricher) *Pipeline {
	if enricher == nil {
		enricher = enrich.Noop{}
	}
	return &Pipeline{store: store, fetcher: f, enricher: enricher}
}

// Ingest runs the pipeline for one request. Fetch failures are recoverable:
// they surface as the response message with zero counts and no source, and
// nothing is persisted. The merge step runs inside a single transaction.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (*Response, error) {
	sourceName := strings.TrimSpace(req.SourceName)
	if sourceName == "" {
		sourceName = "User Source"
	}
	role := req.Role
	if role == "" {
		role = vendor.RoleAuthorizedDistributor
	}

	fetched, err := p.fetcher.Fetch(ctx, req.SourceURL)
	if err != nil {
		zap.L().Warn("ingest: fetch rejected",
			zap.String("url", req.SourceURL),
			zap.Error(err),
		)
		return &Response{Message: err.Error()}, nil
	}

	summary, err := extract.Parse(fetched.Body, fetched.FinalURL)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: extract candidates")
	}

	if req.DryRun {
		return &Response{
			InsertedCompanies: len(summary.Candidates),
			SkippedRows:       summary.Skipped,
			Message:           "Dry run completed. No database changes were made.",
		}, nil
	}

	sourceDomain := ""
	if parsed, err := url.Parse(fetched.FinalURL); err == nil {
		sourceDomain = parsed.Hostname()
	}

	var (
		source   vendor.SourceRecord
		inserted int
		updated  int
	)
	err = p.store.WithTx(ctx, func(tx vendor.Store) error {
		source = vendor.SourceRecord{
			SourceName:    sourceName,
			SourceURL:     fetched.FinalURL,
			ParserVersion: ParserVersion,
			HTTPStatus:    fetched.Status,
			ContentHash:   fetched.ContentHash,
		}
		if err := tx.CreateSourceRecord(ctx, &source); err != nil {
			return err
		}

		productType, err := upsertProductType(ctx, tx, req.ProductTypeQuery)
		if err != nil {
			return err
		}

		for _, candidate := range summary.Candidates {
			created, changed, err := p.mergeCandidate(ctx, tx, candidate,
				productType.ID, role, &source, sourceDomain, fetched.FinalURL)
			if err != nil {
				return eris.Wrapf(err, "ingest: merge candidate %q", candidate.Name)
			}
			if created {
				inserted++
			} else if changed {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("ingest: completed",
		zap.String("source_url", req.SourceURL),
		zap.Int64("source_id", source.ID),
		zap.Int("inserted", inserted),
		zap.Int("updated", updated),
		zap.Int("skipped", summary.Skipped),
	)
	return &Response{
		SourceID:          &source.ID,
		InsertedCompanies: inserted,
		UpdatedCompanies:  updated,
		SkippedRows:       summary.Skipped,
		Message:           fmt.Sprintf("Ingestion complete: %d companies processed.", inserted+updated),
	}, nil
}
