package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// domSelectors are the containers the heuristic strategy inspects, in order.
var domSelectors = []string{
	"table tr",
	"ul li",
	"ol li",
	"div.vendor",
	"div.supplier",
}

var nameSeparatorRE = regexp.MustCompile(`\||-|,|;|\x{2022}`)

var genericHeaderTokens = map[string]bool{
	"vendor": true, "vendors": true, "supplier": true, "suppliers": true,
	"name": true, "email": true, "country": true, "phone": true,
}

// fromDOM runs the heuristic strategy: every matching container either yields
// one candidate or counts as a skipped row.
func fromDOM(doc *goquery.Document, base *url.URL) ([]Candidate, int) {
	var out []Candidate
	skipped := 0

	for _, selector := range domSelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			candidate, ok := candidateFromTag(sel, base)
			if !ok {
				skipped++
				return
			}
			out = append(out, candidate)
		})
	}
	return out, skipped
}

func candidateFromTag(sel *goquery.Selection, base *url.URL) (Candidate, bool) {
	// Pure header rows carry no data cells.
	if goquery.NodeName(sel) == "tr" &&
		sel.Find("th").Length() > 0 && sel.Find("td").Length() == 0 {
		return Candidate{}, false
	}

	text := cleanText(joinedText(sel))
	if len(text) < 5 {
		return Candidate{}, false
	}

	website := firstWebsite(sel, base)
	email := firstEmail(text)
	phone := firstPhone(text)
	country := countryFromText(text)

	// Long prose with no concrete details is noise, not a listing.
	if len(strings.Fields(text)) > 60 && website == "" && email == "" && phone == "" && country == "" {
		return Candidate{}, false
	}

	name := firstSegment(text)
	if hasOnlyGenericTokens(name) || !alphaRE.MatchString(name) {
		return Candidate{}, false
	}
	if words := strings.Fields(name); len(words) > 12 {
		name = strings.Join(words[:12], " ")
	}

	return Candidate{
		Name:    name,
		Website: website,
		Email:   email,
		Phone:   phone,
		Country: country,
		RawText: truncateRunes(text, 5000),
	}, true
}

// joinedText flattens the container's text with spaces between nodes.
func joinedText(sel *goquery.Selection) string {
	var parts []string
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if t := strings.TrimSpace(child.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return sel.Text()
	}
	return strings.Join(parts, " ")
}

// firstWebsite returns the first outbound absolute http(s) link.
func firstWebsite(sel *goquery.Selection, base *url.URL) string {
	var found string
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return true
		}
		absolute := resolveRef(base, href)
		parsed, err := url.Parse(absolute)
		if err != nil {
			return true
		}
		if (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Hostname() != "" {
			found = absolute
			return false
		}
		return true
	})
	return found
}

// firstSegment takes the text before the first separator if it is long
// enough to be a name, else the leading slice of the whole text.
func firstSegment(text string) string {
	first := strings.TrimSpace(nameSeparatorRE.Split(text, 2)[0])
	if len(first) >= 3 {
		return first
	}
	return truncateRunes(text, 120)
}

func hasOnlyGenericTokens(name string) bool {
	words := strings.Fields(name)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !genericHeaderTokens[strings.ToLower(w)] {
			return false
		}
	}
	return true
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
