package ingest

import (
	"math"
	"net/url"

	"github.com/manuid/manuid/internal/extract"
)

// AutoConfidence estimates extraction quality for one candidate. The score
// starts at 0.35, rewards each concrete detail, adds a small bonus when the
// candidate's website lives on the ingestion source's own domain, and is
// capped at 0.95 so automated extraction never reaches full confidence.
func AutoConfidence(c extract.Candidate, sourceDomain string) float64 {
	score := 0.35
	if c.Website != "" {
		score += 0.20
	}
	if c.Email != "" {
		score += 0.20
	}
	if c.Phone != "" {
		score += 0.10
	}
	if c.Country != "" {
		score += 0.10
	}
	if sourceDomain != "" && c.Website != "" {
		if parsed, err := url.Parse(c.Website); err == nil && parsed.Hostname() == sourceDomain {
			score += 0.05
		}
	}
	return math.Round(math.Min(score, 0.95)*1000) / 1000
}
