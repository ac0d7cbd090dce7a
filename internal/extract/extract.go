package extract

import (
	"bytes"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Parse runs both extraction strategies over the document and collapses the
// combined candidates by canonical key, keeping the richest per key.
func Parse(html []byte, baseURL string) (*Summary, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse document")
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	candidates := fromJSONLD(doc, base)
	domCandidates, skipped := fromDOM(doc, base)
	candidates = append(candidates, domCandidates...)

	deduped, dropped := dedupe(candidates)

	zap.L().Debug("extract: parsed page",
		zap.String("base_url", baseURL),
		zap.Int("raw_candidates", len(candidates)),
		zap.Int("deduped", len(deduped)),
		zap.Int("skipped", skipped+dropped),
	)
	return &Summary{Candidates: deduped, Skipped: skipped + dropped}, nil
}
