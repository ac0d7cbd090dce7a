package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/manuid/manuid/internal/auth"
	"github.com/manuid/manuid/internal/fetcher"
	"github.com/manuid/manuid/internal/ingest"
	"github.com/manuid/manuid/internal/search"
	"github.com/manuid/manuid/internal/seed"
	"github.com/manuid/manuid/internal/vendor"
)

func init() {
	// Replace global logger with a no-op to avoid nil pointer panics in tests.
	zap.ReplaceGlobals(zap.NewNop())
}

const testKey = "test-key"

type stubFetcher struct {
	result *fetcher.Result
	err    error
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) (*fetcher.Result, error) {
	return s.result, s.err
}

func newTestServer(t *testing.T) (*Server, *vendor.MemoryStore) {
	t.Helper()
	store := vendor.NewMemory()
	require.NoError(t, seed.Run(context.Background(), store))

	f := &stubFetcher{result: &fetcher.Result{
		RequestedURL: "https://directory.pharmacompass.example/suppliers",
		FinalURL:     "https://directory.pharmacompass.example/suppliers",
		Status:       200,
		Body: []byte(`<html><body><ul>
			<li>Nordic Gelatin Works | sales@nordicgelatin.example | Germany</li>
		</ul></body></html>`),
		ContentHash: "feedface",
	}}
	pipeline := ingest.New(store, f, nil)
	authenticator := auth.New([]string{testKey}, auth.NewSlidingWindow(), 1000)
	return New(store, search.New(store), pipeline, authenticator), store
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.9:40000"
	if authed {
		req.Header.Set("X-API-Key", testKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthIsOpen(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/health", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestV1RequiresAPIKey(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/v1/product-types", nil, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Missing API key"}`, rec.Body.String())
}

func TestListProductTypes(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/v1/product-types?q=capsule", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var types []vendor.ProductType
	decodeBody(t, rec, &types)
	require.NotEmpty(t, types)
	names := make([]string, 0, len(types))
	for _, pt := range types {
		names = append(names, pt.Name)
	}
	assert.Contains(t, names, "Gelatin Capsules")
}

func TestListProductTypesRejectsBadLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/v1/product-types?limit=500", nil, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSearchVendors(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/search/vendors",
		map[string]any{"product_type_query": "gelatin capsules"}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchVendorsResponse
	decodeBody(t, rec, &resp)
	require.NotNil(t, resp.ProductType)
	assert.Equal(t, "gelatin_capsules", resp.ProductType.Slug)
	assert.Equal(t, "Gelatin Capsules", resp.NormalizedQuery)
	require.NotEmpty(t, resp.Data)

	first := resp.Data[0]
	require.NotNil(t, first.Score)
	assert.Greater(t, *first.Score, 0.0)
	assert.NotEmpty(t, first.ScoreReasons)
	assert.NotEmpty(t, first.Contacts)
}

func TestSearchVendorsRejectsShortQuery(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/search/vendors",
		map[string]any{"product_type_query": "x"}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestVendorDetail(t *testing.T) {
	srv, store := newTestServer(t)
	seeded, err := store.FindVendorByName(context.Background(), "CapsuGel Partners GmbH")
	require.NoError(t, err)
	require.NotNil(t, seeded)

	rec := doJSON(t, srv.Router(), http.MethodGet, fmt.Sprintf("/v1/vendors/%d", seeded.ID), nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp vendorDetailResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "CapsuGel Partners GmbH", resp.Vendor.Name)
	assert.Len(t, resp.ProductTypes, 2)
	assert.NotNil(t, resp.EvidenceURLs)
	assert.NotEmpty(t, resp.Vendor.Contacts)
}

func TestVendorDetailNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/v1/vendors/99999", nil, true)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Vendor not found"}`, rec.Body.String())
}

func TestVerifyVendor(t *testing.T) {
	srv, store := newTestServer(t)
	seeded, err := store.FindVendorByName(context.Background(), "Hanseong Pharma Packaging")
	require.NoError(t, err)
	require.NotNil(t, seeded)

	rec := doJSON(t, srv.Router(), http.MethodPost, fmt.Sprintf("/v1/vendors/%d/verify", seeded.ID),
		map[string]any{
			"verification_state": "HUMAN_VERIFIED",
			"confidence_score":   0.9,
			"notes":              "checked GMP certificate",
		}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp vendorPayload
	decodeBody(t, rec, &resp)
	assert.Equal(t, vendor.VerificationHumanVerified, resp.VerificationState)
	assert.InDelta(t, 0.9, resp.ConfidenceScore, 1e-9)
	assert.Contains(t, resp.VerificationSource, " | review: checked GMP certificate")

	stored, err := store.GetVendor(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, vendor.VerificationHumanVerified, stored.VerificationState)
}

func TestVerifyVendorRejectsBadState(t *testing.T) {
	srv, store := newTestServer(t)
	seeded, err := store.FindVendorByName(context.Background(), "Hanseong Pharma Packaging")
	require.NoError(t, err)

	rec := doJSON(t, srv.Router(), http.MethodPost, fmt.Sprintf("/v1/vendors/%d/verify", seeded.ID),
		map[string]any{"verification_state": "MAYBE", "confidence_score": 0.5}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSourceCatalog(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/v1/source-catalog", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]seed.Source
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp["data"])
	for _, src := range resp["data"] {
		assert.NotEmpty(t, src.URL)
	}
}

func TestIngestURLDryRun(t *testing.T) {
	srv, store := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/ingestion/url",
		map[string]any{
			"source_url":         "https://directory.pharmacompass.example/suppliers",
			"product_type_query": "gelatin capsules",
			"dry_run":            true,
		}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ingest.Response
	decodeBody(t, rec, &resp)
	assert.Equal(t, 1, resp.InsertedCompanies)
	assert.Equal(t, "Dry run completed. No database changes were made.", resp.Message)

	created, err := store.FindVendorByName(context.Background(), "Nordic Gelatin Works")
	require.NoError(t, err)
	assert.Nil(t, created)
}

func TestIngestURLRejectsBadURL(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/ingestion/url",
		map[string]any{"source_url": "not-a-url", "product_type_query": "gelatin capsules"}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
