// Package search resolves a product-type query, filters the registry, and
// ranks vendors with an explainable weighted score.
package search

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/manuid/manuid/internal/vendor"
)

// Request is one vendor search.
type Request struct {
	ProductTypeQuery string          `json:"product_type_query"`
	Country          string          `json:"country,omitempty"`
	Region           string          `json:"region,omitempty"`
	Certifications   []string        `json:"certifications,omitempty"`
	Role             vendor.LinkRole `json:"role,omitempty"`
	CompanyType      vendor.Type     `json:"company_type,omitempty"`
	Status           vendor.Status   `json:"status,omitempty"`
	MinConfidence    float64         `json:"min_confidence,omitempty"`
	Limit            int             `json:"limit,omitempty"`
}

// Scoring weights. They sum to 1.0 so the total stays in [0,1].
const (
	weightConfidence = 0.32
	weightFreshness  = 0.24
	weightCompliance = 0.20
	weightCerts      = 0.14
	weightRole       = 0.06
	weightStatus     = 0.04
)

// Score ranks one vendor against the request. Reasons come back in a fixed
// order: freshness, compliance, certification, confidence, then role (only
// when a role was requested).
func Score(v *vendor.Record, req Request, matchedRole vendor.LinkRole, now time.Time) (float64, []string) {
	var reasons []string

	freshness, freshnessReason := freshnessScore(v.LastVerifiedAt, now)
	reasons = append(reasons, freshnessReason)

	compliance, complianceReason := complianceCoverage(v)
	reasons = append(reasons, complianceReason)

	certScore, certReason := certificationMatch(v, req.Certifications)
	reasons = append(reasons, certReason)

	confidence := math.Max(0, math.Min(v.ConfidenceScore, 1))
	reasons = append(reasons, fmt.Sprintf("Confidence score %.2f", confidence))

	roleBonus := 0.0
	if req.Role != "" && matchedRole == req.Role {
		roleBonus = 1.0
		reasons = append(reasons, fmt.Sprintf("Role matched requested: %s", req.Role))
	} else if req.Role != "" {
		reasons = append(reasons, "Role differs from requested")
	}

	statusScore := 0.5
	switch v.Status {
	case vendor.StatusActive:
		statusScore = 1.0
	case vendor.StatusInactive:
		statusScore = 0.1
	}

	total := weightConfidence*confidence +
		weightFreshness*freshness +
		weightCompliance*compliance +
		weightCerts*certScore +
		weightRole*roleBonus +
		weightStatus*statusScore

	return math.Round(total*10000) / 10000, reasons
}

func freshnessScore(lastVerifiedAt *time.Time, now time.Time) (float64, string) {
	if lastVerifiedAt == nil {
		return 0.2, "No recent verification timestamp"
	}

	ageDays := int(now.Sub(*lastVerifiedAt).Hours() / 24)
	switch {
	case ageDays <= 30:
		return 1.0, "Verified in last 30 days"
	case ageDays <= 90:
		return 0.8, "Verified in last 90 days"
	case ageDays <= 180:
		return 0.6, "Verified in last 180 days"
	case ageDays <= 365:
		return 0.4, "Verified in last 1 year"
	}
	return 0.2, "Verification is older than 1 year"
}

func complianceCoverage(v *vendor.Record) (float64, string) {
	supported := v.PharmacopeiaSupported()
	if len(supported) == 0 {
		return 0.3, "No pharmacopeia support listed"
	}
	score := math.Min(1.0, 0.35+0.1*float64(len(supported)))
	return score, fmt.Sprintf("Supports %d pharmacopeia standard(s)", len(supported))
}

func certificationMatch(v *vendor.Record, requested []string) (float64, string) {
	if len(requested) == 0 {
		return 0.7, "No certification filter requested"
	}

	held := make(map[string]bool, len(v.Certifications))
	for _, c := range v.Certifications {
		held[strings.ToLower(c)] = true
	}

	requestedSet := make(map[string]bool, len(requested))
	var matched []string
	for _, c := range requested {
		lower := strings.ToLower(c)
		if requestedSet[lower] {
			continue
		}
		requestedSet[lower] = true
		if held[lower] {
			matched = append(matched, lower)
		}
	}

	if len(matched) == 0 {
		return 0.0, "Certification filter not matched"
	}
	sort.Strings(matched)
	ratio := float64(len(matched)) / float64(len(requestedSet))
	return ratio, "Matched certifications: " + strings.Join(matched, ", ")
}
