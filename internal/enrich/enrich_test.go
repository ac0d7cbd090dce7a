package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/manuid/manuid/internal/vendor"
	"github.com/manuid/manuid/pkg/anthropic"
)

func init() {
	// Replace global logger with a no-op to avoid nil pointer panics in tests.
	zap.ReplaceGlobals(zap.NewNop())
}

// stubClient returns a canned response or error.
type stubClient struct {
	text string
	err  error
}

func (s *stubClient) CreateMessage(context.Context, anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: s.text}},
	}, nil
}

func TestClaudeEnrichParsesPatch(t *testing.T) {
	client := &stubClient{text: "```json\n" + `{
		"certifications": ["ISO9001", "GMP"],
		"regions_served": ["EU"],
		"pharmacopeia_supported": ["USP"],
		"lead_time_days_range": {"min": 10, "max": 30},
		"moq_range": null
	}` + "\n```"}

	patch := NewClaude(client, "claude-haiku-4-5-20251001").
		Enrich(context.Background(), "Acme Pharma Supply, GMP-certified, ships across the EU")

	require.False(t, patch.Empty())
	assert.Equal(t, []string{"ISO9001", "GMP"}, patch.Certifications)
	require.NotNil(t, patch.LeadTimeDays)
	assert.Equal(t, 10, patch.LeadTimeDays.Min)
	assert.Nil(t, patch.MOQ)
}

func TestClaudeEnrichSwallowsFailures(t *testing.T) {
	failing := NewClaude(&stubClient{err: assert.AnError}, "claude-haiku-4-5-20251001")
	assert.True(t, failing.Enrich(context.Background(), "text").Empty())

	garbled := NewClaude(&stubClient{text: "sorry, I cannot"}, "claude-haiku-4-5-20251001")
	assert.True(t, garbled.Enrich(context.Background(), "text").Empty())

	blank := NewClaude(&stubClient{text: "{}"}, "claude-haiku-4-5-20251001")
	assert.True(t, blank.Enrich(context.Background(), "   ").Empty())
}

func TestNoopEnricher(t *testing.T) {
	assert.True(t, Noop{}.Enrich(context.Background(), "anything").Empty())
}

func TestApplyUnionsListsAndReplacesRanges(t *testing.T) {
	r := &vendor.Record{
		Certifications: []string{"ISO9001"},
		Compliance:     map[string][]string{vendor.CompliancePharmacopeia: {"EP"}},
		LeadTimeDays:   &vendor.Range{Min: 5, Max: 10},
	}

	Apply(r, Patch{
		Certifications:        []string{"GMP", " ISO9001 "},
		RegionsServed:         []string{"EU", "APAC"},
		PharmacopeiaSupported: []string{"USP"},
		LeadTimeDays:          &vendor.Range{Min: 20, Max: 40},
	})

	assert.Equal(t, []string{"GMP", "ISO9001"}, r.Certifications)
	assert.Equal(t, []string{"APAC", "EU"}, r.RegionsServed)
	assert.Equal(t, []string{"EP", "USP"}, r.Compliance[vendor.CompliancePharmacopeia])
	assert.Equal(t, &vendor.Range{Min: 20, Max: 40}, r.LeadTimeDays)
}

func TestApplyEmptyPatchIsNoop(t *testing.T) {
	r := &vendor.Record{Certifications: []string{"ISO9001"}}
	Apply(r, Patch{})
	assert.Equal(t, []string{"ISO9001"}, r.Certifications)
}
