package search

import (
	"math"
	"sort"

	"github.com/spec-kit/support-workbench/internal/domain"
)

// MergeRanked combines general and contextual result sets, deduplicating by
// result id (contextual copies win, they carry relevance-to-ticket scores)
// and ordering by composite rank.
func MergeRanked(general, contextual []domain.SearchResult) []domain.SearchResult {
	merged := make(map[string]domain.SearchResult, len(general)+len(contextual))
	for _, r := range general {
		merged[r.ID] = r
	}
	for _, r := range contextual {
		merged[r.ID] = r
	}

	out := make([]domain.SearchResult, 0, len(merged))
	for _, r := range merged {
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return compositeRank(out[i]) > compositeRank(out[j])
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

// compositeRank weights ticket relevance above general relevance, with
// credibility as a tiebreaker.
func compositeRank(r domain.SearchResult) float64 {
	rank := r.RelevanceScore
	if r.RelevanceToTicket != nil {
		rank = *r.RelevanceToTicket*2 + r.RelevanceScore
	}
	return rank + r.CredibilityScore*0.1
}

// Confidence computes the heuristic confidence indicator shown next to a
// result set:
//
//	round(min(100, meanRelevance*100 + highCredibilityFraction*20 + sourceVariety*10))
//
// Advisory only; never used for gating.
func Confidence(results []domain.SearchResult) int {
	if len(results) == 0 {
		return 0
	}

	var relevanceSum float64
	var highCredibility int
	seenTypes := make(map[domain.SourceType]bool)
	for _, r := range results {
		relevanceSum += r.RelevanceScore
		if r.CredibilityLevel == domain.CredibilityHigh {
			highCredibility++
		}
		seenTypes[r.SourceType] = true
	}

	meanRelevance := relevanceSum / float64(len(results))
	highFraction := float64(highCredibility) / float64(len(results))
	variety := float64(len(seenTypes)) / float64(len(domain.SourceTypes))

	score := meanRelevance*100 + highFraction*20 + variety*10
	return int(math.Round(math.Min(100, score)))
}
