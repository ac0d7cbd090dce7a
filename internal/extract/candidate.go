// Package extract turns raw markup into ephemeral vendor candidates using two
// independent strategies: embedded structured data and DOM heuristics. Their
// outputs are concatenated and collapsed by richness-based deduplication.
package extract

import "strings"

// Candidate is one vendor listing pulled from a page. It has no identity
// beyond the request that produced it.
type Candidate struct {
	Name    string
	Website string
	Email   string
	Phone   string
	Country string
	RawText string
}

// Richness counts the non-empty detail fields. Used to pick a winner when
// two candidates share a canonical key.
func (c Candidate) Richness() int {
	n := 0
	for _, f := range []string{c.Website, c.Email, c.Phone, c.Country} {
		if f != "" {
			n++
		}
	}
	return n
}

// Key is the canonical identity: lowercased trimmed website if present,
// else lowercased trimmed name.
func (c Candidate) Key() string {
	if k := strings.ToLower(strings.TrimSpace(c.Website)); k != "" {
		return k
	}
	return strings.ToLower(strings.TrimSpace(c.Name))
}

// Summary is the outcome of one extraction pass.
type Summary struct {
	Candidates []Candidate
	Skipped    int
}

// dedupe collapses candidates sharing a key, keeping the richer one. Ties
// keep the first encountered. Candidates with an empty key or a name under
// three characters are dropped and counted as skipped.
func dedupe(candidates []Candidate) ([]Candidate, int) {
	skipped := 0
	byKey := make(map[string]int)
	var out []Candidate

	for _, c := range candidates {
		key := c.Key()
		if key == "" || len(c.Name) < 3 {
			skipped++
			continue
		}
		idx, seen := byKey[key]
		if !seen {
			byKey[key] = len(out)
			out = append(out, c)
			continue
		}
		if c.Richness() > out[idx].Richness() {
			out[idx] = c
		}
	}
	return out, skipped
}
