// Package taxonomy fuzzy-matches free-text product-type queries against the
// catalog and derives slugs/names for entries created from unmatched queries.
package taxonomy

import (
	"regexp"
	"strings"

	"github.com/agext/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/manuid/manuid/internal/vendor"
)

// MatchThreshold is the minimum combined score for accepting a catalog match.
const MatchThreshold = 0.45

// Result is the outcome of normalizing one query.
type Result struct {
	// ProductType is the accepted catalog match, or nil.
	ProductType *vendor.ProductType
	// NormalizedQuery is the matched name, or the trimmed original query.
	NormalizedQuery string
	Score           float64
}

var (
	tokenSplitRE = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	slugRE       = regexp.MustCompile(`[^a-z0-9]+`)
	titleCaser   = cases.Title(language.English)
)

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range tokenSplitRE.Split(strings.ToLower(s), -1) {
		if tok != "" {
			tokens[tok] = true
		}
	}
	return tokens
}

// matchScore blends character similarity with token overlap.
func matchScore(queryLower string, queryTokens map[string]bool, candidate string) float64 {
	ratio := levenshtein.Similarity(queryLower, strings.ToLower(candidate), levenshtein.NewParams())

	overlap := 0
	for tok := range tokenize(candidate) {
		if queryTokens[tok] {
			overlap++
		}
	}
	denom := len(queryTokens)
	if denom < 1 {
		denom = 1
	}
	return 0.55*ratio + 0.45*float64(overlap)/float64(denom)
}

// Normalize scores the query against every catalog entry's name, slug, and
// keywords, taking the best candidate string per entry and the best entry
// overall. A match below MatchThreshold is reported as no match.
func Normalize(query string, catalog []vendor.ProductType) Result {
	clean := strings.TrimSpace(query)
	if clean == "" {
		return Result{NormalizedQuery: query}
	}
	if len(catalog) == 0 {
		return Result{NormalizedQuery: clean}
	}

	queryLower := strings.ToLower(clean)
	queryTokens := tokenize(clean)

	var best *vendor.ProductType
	bestScore := 0.0
	for i := range catalog {
		item := &catalog[i]
		candidates := append([]string{item.Name, item.Slug}, item.Keywords...)

		itemScore := 0.0
		for _, candidate := range candidates {
			if s := matchScore(queryLower, queryTokens, candidate); s > itemScore {
				itemScore = s
			}
		}
		if itemScore > bestScore {
			bestScore = itemScore
			best = item
		}
	}

	if best != nil && bestScore >= MatchThreshold {
		return Result{ProductType: best, NormalizedQuery: best.Name, Score: bestScore}
	}
	return Result{NormalizedQuery: clean, Score: bestScore}
}

// Slugify lowercases the value, collapses non-alphanumeric runs to
// underscores, and caps the slug at 120 characters.
func Slugify(value string) string {
	slug := strings.Trim(slugRE.ReplaceAllString(strings.ToLower(value), "_"), "_")
	if len(slug) > 120 {
		slug = slug[:120]
	}
	if slug == "" {
		return "custom_product_type"
	}
	return slug
}

// TitleName renders a user query as a display name for a new catalog entry.
func TitleName(query string) string {
	return titleCaser.String(strings.TrimSpace(query))
}
