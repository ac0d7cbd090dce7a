package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/manuid/manuid/internal/taxonomy"
	"github.com/manuid/manuid/internal/vendor"
)

const (
	defaultLimit = 25
	maxLimit     = 100

	// catalogLimit bounds the taxonomy snapshot handed to the normalizer.
	catalogLimit = 1000
)

// Result is one scored vendor.
type Result struct {
	Vendor  vendor.Record `json:"vendor"`
	Score   float64       `json:"score"`
	Reasons []string      `json:"reasons"`
}

// Response is the outcome of one search.
type Response struct {
	ResolvedProductType *vendor.ProductType `json:"resolved_product_type,omitempty"`
	NormalizedQuery     string              `json:"normalized_query"`
	Results             []Result            `json:"results"`
}

// Service executes vendor searches against the registry.
type Service struct {
	store vendor.Store
	now   func() time.Time
}

// New creates a search Service.
func New(store vendor.Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Search resolves the product-type query, applies the store-level and
// in-memory filters, and returns vendors ranked by score. Ties preserve
// retrieval order.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	catalog, err := s.store.ListProductTypes(ctx, "", "", catalogLimit)
	if err != nil {
		return nil, eris.Wrap(err, "search: load catalog")
	}
	normalized := taxonomy.Normalize(req.ProductTypeQuery, catalog)

	filter := vendor.SearchFilter{
		Country:       req.Country,
		VendorType:    req.CompanyType,
		Status:        req.Status,
		MinConfidence: req.MinConfidence,
	}
	if normalized.ProductType != nil {
		filter.ProductTypeID = normalized.ProductType.ID
	} else {
		filter.QueryText = req.ProductTypeQuery
	}

	rows, err := s.store.SearchVendors(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "search: list vendors")
	}

	now := s.now()
	var results []Result
	for i := range rows {
		row := &rows[i]
		if req.Region != "" && !containsString(row.Vendor.RegionsServed, req.Region) {
			continue
		}
		if req.Role != "" && row.Role != req.Role {
			continue
		}
		if len(req.Certifications) > 0 && !holdsAll(row.Vendor.Certifications, req.Certifications) {
			continue
		}

		score, reasons := Score(&row.Vendor, req, row.Role, now)
		results = append(results, Result{Vendor: row.Vendor, Score: score, Reasons: reasons})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}

	zap.L().Debug("search: ranked vendors",
		zap.String("query", req.ProductTypeQuery),
		zap.String("normalized_query", normalized.NormalizedQuery),
		zap.Int("candidates", len(rows)),
		zap.Int("results", len(results)),
	)
	return &Response{
		ResolvedProductType: normalized.ProductType,
		NormalizedQuery:     normalized.NormalizedQuery,
		Results:             results,
	}, nil
}

func containsString(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// holdsAll reports whether every requested certification is held,
// case-insensitively.
func holdsAll(held, requested []string) bool {
	set := make(map[string]bool, len(held))
	for _, c := range held {
		set[strings.ToLower(c)] = true
	}
	for _, c := range requested {
		if !set[strings.ToLower(c)] {
			return false
		}
	}
	return true
}
