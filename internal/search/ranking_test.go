package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-workbench/internal/domain"
)

func result(id string, relevance float64, level domain.CredibilityLevel, source domain.SourceType) domain.SearchResult {
	return domain.SearchResult{
		ID:               id,
		Title:            "result " + id,
		RelevanceScore:   relevance,
		CredibilityLevel: level,
		SourceType:       source,
	}
}

func TestConfidenceEmpty(t *testing.T) {
	assert.Equal(t, 0, Confidence(nil))
	assert.Equal(t, 0, Confidence([]domain.SearchResult{}))
}

func TestConfidenceFormula(t *testing.T) {
	// mean relevance 0.5, half high credibility, one of four source types:
	// 50 + 10 + 2.5 = 62.5 → 63
	results := []domain.SearchResult{
		result("a", 0.4, domain.CredibilityHigh, domain.SourceKnowledgeBase),
		result("b", 0.6, domain.CredibilityLow, domain.SourceKnowledgeBase),
	}
	assert.Equal(t, 63, Confidence(results))
}

func TestConfidenceCappedAt100(t *testing.T) {
	results := []domain.SearchResult{
		result("a", 1.0, domain.CredibilityHigh, domain.SourceKnowledgeBase),
		result("b", 1.0, domain.CredibilityHigh, domain.SourceDocumentation),
		result("c", 1.0, domain.CredibilityHigh, domain.SourceCommunity),
		result("d", 1.0, domain.CredibilityHigh, domain.SourceVendor),
	}
	assert.Equal(t, 100, Confidence(results))
}

func TestMergeRankedDeduplicatesAndPrefersContextual(t *testing.T) {
	ticketRelevance := 0.9
	contextualCopy := result("shared", 0.5, domain.CredibilityMedium, domain.SourceKnowledgeBase)
	contextualCopy.RelevanceToTicket = &ticketRelevance

	merged := MergeRanked(
		[]domain.SearchResult{
			result("shared", 0.5, domain.CredibilityMedium, domain.SourceKnowledgeBase),
			result("general-only", 0.8, domain.CredibilityHigh, domain.SourceDocumentation),
		},
		[]domain.SearchResult{contextualCopy},
	)

	require.Len(t, merged, 2)
	assert.Equal(t, "shared", merged[0].ID, "ticket-relevant result ranks first")
	require.NotNil(t, merged[0].RelevanceToTicket)
	assert.Equal(t, 0.9, *merged[0].RelevanceToTicket)
}

func TestMergeRankedAssignsPositions(t *testing.T) {
	merged := MergeRanked([]domain.SearchResult{
		result("low", 0.1, domain.CredibilityLow, domain.SourceCommunity),
		result("high", 0.9, domain.CredibilityHigh, domain.SourceKnowledgeBase),
	}, nil)

	require.Len(t, merged, 2)
	assert.Equal(t, "high", merged[0].ID)
	assert.Equal(t, 1, merged[0].Position)
	assert.Equal(t, 2, merged[1].Position)
}
