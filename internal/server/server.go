// Package server exposes the registry over HTTP: health, taxonomy listing,
// vendor search, URL ingestion, vendor detail/verification, and the source
// catalog.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manuid/manuid/internal/auth"
	"github.com/manuid/manuid/internal/ingest"
	"github.com/manuid/manuid/internal/search"
	"github.com/manuid/manuid/internal/vendor"
)

// Server holds the HTTP dependencies.
type Server struct {
	store    vendor.Store
	search   *search.Service
	pipeline *ingest.Pipeline
	auth     *auth.Authenticator
}

// New creates a Server.
func New(store vendor.Store, searchSvc *search.Service, pipeline *ingest.Pipeline, authenticator *auth.Authenticator) *Server {
	return &Server{store: store, search: searchSvc, pipeline: pipeline, auth: authenticator}
}

// Router builds the HTTP handler tree. The health endpoint is open; every
// /v1 route sits behind API-key auth and the per-client rate limit.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Get("/product-types", s.handleListProductTypes)
		r.Post("/search/vendors", s.handleSearchVendors)
		r.Post("/ingestion/url", s.handleIngestURL)
		r.Get("/vendors/{vendorID}", s.handleVendorDetail)
		r.Post("/vendors/{vendorID}/verify", s.handleVerifyVendor)
		r.Get("/source-catalog", s.handleSourceCatalog)
	})

	return r
}

// requestID assigns each request a UUID and echoes it back in the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", ww.Header().Get("X-Request-ID")),
		)
	})
}
