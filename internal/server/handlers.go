package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/manuid/manuid/internal/ingest"
	"github.com/manuid/manuid/internal/search"
	"github.com/manuid/manuid/internal/seed"
	"github.com/manuid/manuid/internal/vendor"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("server: request failed", zap.Error(err))
	writeDetail(w, http.StatusInternalServerError, "Internal server error")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListProductTypes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	pharmacopeia := r.URL.Query().Get("pharmacopeia")

	limit := 25
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			writeDetail(w, http.StatusUnprocessableEntity, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	types, err := s.store.ListProductTypes(r.Context(), q, pharmacopeia, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if types == nil {
		types = []vendor.ProductType{}
	}
	writeJSON(w, http.StatusOK, types)
}

// searchVendorsRequest mirrors the public request body. Status defaults to
// ACTIVE when the field is absent; an explicit null clears the filter.
type searchVendorsRequest struct {
	ProductTypeQuery string          `json:"product_type_query"`
	Country          string          `json:"country"`
	Region           string          `json:"region"`
	Certifications   []string        `json:"certifications"`
	Role             vendor.LinkRole `json:"role"`
	CompanyType      vendor.Type     `json:"company_type"`
	Status           *vendor.Status  `json:"status"`
	MinConfidence    float64         `json:"min_confidence"`
	Limit            int             `json:"limit"`
}

type searchVendorsResponse struct {
	ProductType     *vendor.ProductType `json:"product_type"`
	NormalizedQuery string              `json:"normalized_query"`
	Data            []vendorPayload     `json:"data"`
}

func (s *Server) handleSearchVendors(w http.ResponseWriter, r *http.Request) {
	var body searchVendorsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if n := len(strings.TrimSpace(body.ProductTypeQuery)); n < 2 || n > 200 {
		writeDetail(w, http.StatusUnprocessableEntity, "product_type_query must be between 2 and 200 characters")
		return
	}
	if body.MinConfidence < 0 || body.MinConfidence > 1 {
		writeDetail(w, http.StatusUnprocessableEntity, "min_confidence must be between 0 and 1")
		return
	}
	if body.Limit < 0 || body.Limit > 100 {
		writeDetail(w, http.StatusUnprocessableEntity, "limit must be between 1 and 100")
		return
	}

	status := vendor.StatusActive
	if body.Status != nil {
		status = *body.Status
	}
	req := search.Request{
		ProductTypeQuery: body.ProductTypeQuery,
		Country:          body.Country,
		Region:           body.Region,
		Certifications:   body.Certifications,
		Role:             body.Role,
		CompanyType:      body.CompanyType,
		Status:           status,
		MinConfidence:    body.MinConfidence,
		Limit:            body.Limit,
	}

	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	data := make([]vendorPayload, 0, len(resp.Results))
	for i := range resp.Results {
		res := &resp.Results[i]
		contacts, err := s.store.ListContacts(r.Context(), res.Vendor.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		p := newVendorPayload(&res.Vendor, contacts)
		score := res.Score
		p.Score = &score
		p.ScoreReasons = res.Reasons
		data = append(data, p)
	}

	writeJSON(w, http.StatusOK, searchVendorsResponse{
		ProductType:     resp.ResolvedProductType,
		NormalizedQuery: resp.NormalizedQuery,
		Data:            data,
	})
}

func (s *Server) handleIngestURL(w http.ResponseWriter, r *http.Request) {
	var body ingest.Request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	parsed, err := url.Parse(body.SourceURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "source_url must be a valid absolute URL")
		return
	}
	if n := len(strings.TrimSpace(body.ProductTypeQuery)); n < 2 || n > 200 {
		writeDetail(w, http.StatusUnprocessableEntity, "product_type_query must be between 2 and 200 characters")
		return
	}

	resp, err := s.pipeline.Ingest(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type vendorDetailResponse struct {
	Vendor       vendorPayload        `json:"vendor"`
	ProductTypes []vendor.ProductType `json:"product_types"`
	EvidenceURLs []string             `json:"evidence_urls"`
}

func (s *Server) handleVendorDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := vendorIDParam(w, r)
	if !ok {
		return
	}

	rec, err := s.store.GetVendor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if rec == nil {
		writeDetail(w, http.StatusNotFound, "Vendor not found")
		return
	}

	contacts, err := s.store.ListContacts(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	types, err := s.store.ListVendorProductTypes(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if types == nil {
		types = []vendor.ProductType{}
	}
	urls, err := s.store.ListEvidenceSourceURLs(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if urls == nil {
		urls = []string{}
	}

	writeJSON(w, http.StatusOK, vendorDetailResponse{
		Vendor:       newVendorPayload(rec, contacts),
		ProductTypes: types,
		EvidenceURLs: urls,
	})
}

type verifyVendorRequest struct {
	VerificationState vendor.VerificationState `json:"verification_state"`
	ConfidenceScore   float64                  `json:"confidence_score"`
	Notes             string                   `json:"notes"`
}

func (s *Server) handleVerifyVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := vendorIDParam(w, r)
	if !ok {
		return
	}

	var body verifyVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	switch body.VerificationState {
	case vendor.VerificationUnverified, vendor.VerificationAutoVerified, vendor.VerificationHumanVerified:
	default:
		writeDetail(w, http.StatusUnprocessableEntity, "verification_state must be a valid state")
		return
	}
	if body.ConfidenceScore < 0 || body.ConfidenceScore > 1 {
		writeDetail(w, http.StatusUnprocessableEntity, "confidence_score must be between 0 and 1")
		return
	}
	if len(body.Notes) > 1000 {
		writeDetail(w, http.StatusUnprocessableEntity, "notes must be at most 1000 characters")
		return
	}

	rec, err := s.store.GetVendor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if rec == nil {
		writeDetail(w, http.StatusNotFound, "Vendor not found")
		return
	}

	rec.VerificationState = body.VerificationState
	rec.ConfidenceScore = body.ConfidenceScore
	if body.Notes != "" {
		rec.VerificationSource = fmt.Sprintf("%s | review: %s", rec.VerificationSource, body.Notes)
	}
	if err := s.store.UpdateVendor(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}

	contacts, err := s.store.ListContacts(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newVendorPayload(rec, contacts))
}

func (s *Server) handleSourceCatalog(w http.ResponseWriter, _ *http.Request) {
	sources, err := seed.Catalog()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]seed.Source{"data": sources})
}

func vendorIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "vendorID"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "vendor_id must be an integer")
		return 0, false
	}
	return id, true
}
