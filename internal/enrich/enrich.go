// Package enrich is the best-effort side channel that extracts procurement
// metadata from a candidate's raw text. Any failure or missing configuration
// yields an empty patch; enrichment must never abort ingestion.
package enrich

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/manuid/manuid/internal/vendor"
	"github.com/manuid/manuid/pkg/anthropic"
)

// Patch is a partial update for a vendor's trust fields. Nil or empty fields
// mean "no information", not "clear the field".
type Patch struct {
	Certifications        []string      `json:"certifications"`
	RegionsServed         []string      `json:"regions_served"`
	PharmacopeiaSupported []string      `json:"pharmacopeia_supported"`
	LeadTimeDays          *vendor.Range `json:"lead_time_days_range"`
	MOQ                   *vendor.Range `json:"moq_range"`
}

// Empty reports whether the patch carries no information. An empty patch
// represents both "enrichment disabled" and "enrichment failed".
func (p Patch) Empty() bool {
	return len(p.Certifications) == 0 && len(p.RegionsServed) == 0 &&
		len(p.PharmacopeiaSupported) == 0 && p.LeadTimeDays == nil && p.MOQ == nil
}

// Enricher produces a Patch from a candidate's raw text.
type Enricher interface {
	Enrich(ctx context.Context, rawText string) Patch
}

// Noop always returns an empty patch. Used when enrichment is disabled.
type Noop struct{}

// Enrich implements Enricher.
func (Noop) Enrich(context.Context, string) Patch { return Patch{} }

const promptTemplate = "Extract procurement metadata from the company text as JSON with keys: " +
	"certifications (string[]), regions_served (string[]), " +
	"lead_time_days_range ({min,max} or null), moq_range ({min,max,unit} or null), " +
	"pharmacopeia_supported (string[]). Return JSON only.\n\nTEXT:\n"

const maxPromptText = 4000

// Claude asks a model for the patch.
type Claude struct {
	client anthropic.Client
	model  string
}

// NewClaude creates a model-backed enricher.
func NewClaude(client anthropic.Client, model string) *Claude {
	return &Claude{client: client, model: model}
}

// Enrich implements Enricher. Failures are logged and swallowed.
func (c *Claude) Enrich(ctx context.Context, rawText string) Patch {
	if c.client == nil || strings.TrimSpace(rawText) == "" {
		return Patch{}
	}
	if len(rawText) > maxPromptText {
		rawText = rawText[:maxPromptText]
	}

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: 1024,
		Messages: []anthropic.Message{
			{Role: "user", Content: promptTemplate + rawText},
		},
	})
	if err != nil {
		zap.L().Warn("enrich: model call failed", zap.Error(err))
		return Patch{}
	}
	resp.Usage.LogCost(c.model, "enrichment")

	var patch Patch
	if err := json.Unmarshal([]byte(stripFences(resp.Text())), &patch); err != nil {
		zap.L().Warn("enrich: unparseable model output", zap.Error(err))
		return Patch{}
	}
	return patch
}

// stripFences removes a markdown code fence if the model wrapped its JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Apply merges a patch into the record: list fields are unioned with the
// existing values and sorted, range fields replace outright.
func Apply(r *vendor.Record, patch Patch) {
	if patch.Empty() {
		return
	}

	if len(patch.Certifications) > 0 {
		r.Certifications = unionSorted(r.Certifications, patch.Certifications)
	}
	if len(patch.RegionsServed) > 0 {
		r.RegionsServed = unionSorted(r.RegionsServed, patch.RegionsServed)
	}
	if len(patch.PharmacopeiaSupported) > 0 {
		if r.Compliance == nil {
			r.Compliance = map[string][]string{}
		}
		r.Compliance[vendor.CompliancePharmacopeia] = unionSorted(
			r.Compliance[vendor.CompliancePharmacopeia], patch.PharmacopeiaSupported)
	}
	if patch.LeadTimeDays != nil {
		r.LeadTimeDays = patch.LeadTimeDays
	}
	if patch.MOQ != nil {
		r.MOQ = patch.MOQ
	}
}

func unionSorted(existing, incoming []string) []string {
	set := make(map[string]bool, len(existing)+len(incoming))
	for _, v := range existing {
		if v != "" {
			set[v] = true
		}
	}
	for _, v := range incoming {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = true
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
