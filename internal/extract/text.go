package extract

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	emailRE      = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	phoneRE      = regexp.MustCompile(`\+?[0-9][0-9\s().-]{6,}[0-9]`)
	alphaRE      = regexp.MustCompile(`[A-Za-z]`)
)

// cleanText collapses runs of whitespace into single spaces.
func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

// firstEmail returns the first email-looking token, lowercased.
func firstEmail(text string) string {
	if m := emailRE.FindString(text); m != "" {
		return strings.ToLower(m)
	}
	return ""
}

// firstPhone returns the first phone-like token that parses as a possible
// international number, normalized to E.164. Tokens without a country code
// fail to parse and are discarded.
func firstPhone(text string) string {
	for _, m := range phoneRE.FindAllString(text, -1) {
		num, err := phonenumbers.Parse(cleanText(m), "")
		if err != nil {
			continue
		}
		if phonenumbers.IsPossibleNumber(num) {
			return phonenumbers.Format(num, phonenumbers.E164)
		}
	}
	return ""
}

// countryEntry maps a gazetteer alias to its canonical country name.
type countryEntry struct {
	re   *regexp.Regexp
	name string
}

// Lookup order matters: longer aliases such as "united states" sit next to
// their abbreviations and the first word-boundary hit wins.
var countryGazetteer = buildGazetteer([][2]string{
	{"usa", "United States"},
	{"united states", "United States"},
	{"uk", "United Kingdom"},
	{"united kingdom", "United Kingdom"},
	{"germany", "Germany"},
	{"france", "France"},
	{"italy", "Italy"},
	{"spain", "Spain"},
	{"india", "India"},
	{"china", "China"},
	{"japan", "Japan"},
	{"switzerland", "Switzerland"},
	{"netherlands", "Netherlands"},
	{"belgium", "Belgium"},
	{"singapore", "Singapore"},
	{"south korea", "South Korea"},
	{"korea", "South Korea"},
})

func buildGazetteer(pairs [][2]string) []countryEntry {
	entries := make([]countryEntry, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, countryEntry{
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(p[0]) + `\b`),
			name: p[1],
		})
	}
	return entries
}

// countryFromText matches the gazetteer against lowercased text on word
// boundaries and returns the canonical country name.
func countryFromText(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range countryGazetteer {
		if entry.re.MatchString(lower) {
			return entry.name
		}
	}
	return ""
}
