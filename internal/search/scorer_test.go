package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/manuid/manuid/internal/vendor"
)

func init() {
	// Replace global logger with a no-op to avoid nil pointer panics in tests.
	zap.ReplaceGlobals(zap.NewNop())
}

func daysAgo(now time.Time, days int) *time.Time {
	t := now.AddDate(0, 0, -days)
	return &t
}

func TestScoreStaysInUnitInterval(t *testing.T) {
	now := time.Now().UTC()
	vendors := []*vendor.Record{
		{Status: vendor.StatusActive, ConfidenceScore: 1.2, // clamped
			LastVerifiedAt: daysAgo(now, 1),
			Compliance:     map[string][]string{vendor.CompliancePharmacopeia: {"USP", "EP", "JP", "BP", "IP", "KP", "PhEur"}},
			Certifications: []string{"GMP"}},
		{Status: vendor.StatusInactive, ConfidenceScore: -3},
		{},
	}
	for _, v := range vendors {
		score, _ := Score(v, Request{Certifications: []string{"GMP"}}, vendor.RolePrimaryManufacturer, now)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestScoreFreshnessOrdering(t *testing.T) {
	now := time.Now().UTC()
	recent := &vendor.Record{Status: vendor.StatusActive, ConfidenceScore: 0.6,
		LastVerifiedAt: daysAgo(now, 10)}
	stale := &vendor.Record{Status: vendor.StatusActive, ConfidenceScore: 0.6,
		LastVerifiedAt: daysAgo(now, 400)}

	recentScore, recentReasons := Score(recent, Request{}, "", now)
	staleScore, staleReasons := Score(stale, Request{}, "", now)

	assert.Greater(t, recentScore, staleScore)
	assert.Equal(t, "Verified in last 30 days", recentReasons[0])
	assert.Equal(t, "Verification is older than 1 year", staleReasons[0])
}

func TestScoreReasonOrder(t *testing.T) {
	now := time.Now().UTC()
	v := &vendor.Record{
		Status:          vendor.StatusActive,
		ConfidenceScore: 0.75,
		LastVerifiedAt:  daysAgo(now, 200),
		Certifications:  []string{"ISO9001", "GMP"},
		Compliance:      map[string][]string{vendor.CompliancePharmacopeia: {"USP", "EP"}},
	}
	req := Request{
		Certifications: []string{"GMP", "FDA"},
		Role:           vendor.RolePrimaryManufacturer,
	}

	score, reasons := Score(v, req, vendor.RolePrimaryManufacturer, now)
	require.Len(t, reasons, 5)
	assert.Equal(t, "Verified in last 1 year", reasons[0])
	assert.Equal(t, "Supports 2 pharmacopeia standard(s)", reasons[1])
	assert.Equal(t, "Matched certifications: gmp", reasons[2])
	assert.Equal(t, "Confidence score 0.75", reasons[3])
	assert.Equal(t, "Role matched requested: PRIMARY_MANUFACTURER", reasons[4])

	// 0.32*0.75 + 0.24*0.4 + 0.20*0.55 + 0.14*0.5 + 0.06*1 + 0.04*1
	assert.InDelta(t, 0.616, score, 1e-9)
}

func TestScoreMissingTimestampAndCompliance(t *testing.T) {
	now := time.Now().UTC()
	v := &vendor.Record{Status: vendor.StatusLimited, ConfidenceScore: 0.5}

	_, reasons := Score(v, Request{Role: vendor.RoleReseller}, vendor.RolePrimaryManufacturer, now)
	assert.Equal(t, "No recent verification timestamp", reasons[0])
	assert.Equal(t, "No pharmacopeia support listed", reasons[1])
	assert.Equal(t, "No certification filter requested", reasons[2])
	assert.Equal(t, "Role differs from requested", reasons[4])
}

func TestScoreCertificationFilterNotMatched(t *testing.T) {
	now := time.Now().UTC()
	v := &vendor.Record{Status: vendor.StatusActive, Certifications: []string{"ISO9001"}}

	_, reasons := Score(v, Request{Certifications: []string{"GMP"}}, "", now)
	assert.Equal(t, "Certification filter not matched", reasons[2])
}
