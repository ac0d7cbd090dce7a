package extract

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fromJSONLD scans embedded structured-data blocks and keeps objects whose
// declared type mentions an organization or corporation. Malformed blocks
// are skipped silently; they never abort extraction of the rest.
func fromJSONLD(doc *goquery.Document, base *url.URL) []Candidate {
	var out []Candidate

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		content := strings.TrimSpace(sel.Text())
		if content == "" {
			return
		}

		var payload any
		if err := json.Unmarshal([]byte(content), &payload); err != nil {
			return
		}

		var objects []map[string]any
		switch v := payload.(type) {
		case map[string]any:
			objects = []map[string]any{v}
		case []any:
			for _, item := range v {
				if obj, ok := item.(map[string]any); ok {
					objects = append(objects, obj)
				}
			}
		default:
			return
		}

		for _, obj := range objects {
			declared := strings.ToLower(fmt.Sprint(obj["@type"]))
			if !strings.Contains(declared, "organization") && !strings.Contains(declared, "corporation") {
				continue
			}

			name := cleanText(stringValue(obj["name"]))
			if name == "" {
				continue
			}

			website := firstString(obj["url"])
			if website == "" {
				website = firstString(obj["sameAs"])
			}
			if website != "" {
				website = resolveRef(base, website)
			}

			country := ""
			if address, ok := obj["address"].(map[string]any); ok {
				country = cleanText(stringValue(address["addressCountry"]))
			}

			raw, _ := json.Marshal(obj)
			out = append(out, Candidate{
				Name:    name,
				Website: website,
				Email:   cleanText(stringValue(obj["email"])),
				Phone:   cleanText(stringValue(obj["telephone"])),
				Country: country,
				RawText: cleanText(string(raw)),
			})
		}
	})
	return out
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// firstString unwraps a string or the first element of a string list.
func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// resolveRef resolves ref against the page's base URL.
func resolveRef(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	resolved, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return resolved.String()
}
