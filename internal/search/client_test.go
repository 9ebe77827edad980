package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-workbench/internal/config"
	"github.com/spec-kit/support-workbench/internal/domain"
	"github.com/spec-kit/support-workbench/internal/observability"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := config.SearchConfig{BaseURL: server.URL, RequestTimeoutSec: 5}
	return NewClient(cfg, zap.NewNop(), observability.NewMetrics())
}

func TestSearchDecodesResponse(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/integrated", r.URL.Path)
		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "printer offline", req.Query)

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": "kb-1", "title": "Fix printer", "relevance_score": 0.8, "source_type": "knowledge_base", "credibility_level": "high"},
			},
			"total_count": 1,
			"search_time": 42,
		})
	}))

	resp, err := client.Search(context.Background(), SearchRequest{Query: "printer offline"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalCount)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "kb-1", resp.Results[0].ID)
	assert.Equal(t, domain.SourceKnowledgeBase, resp.Results[0].SourceType)
}

func TestSearchSequenceNumbersAreMonotonic(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}, "total_count": 0})
	}))

	first, err := client.Search(context.Background(), SearchRequest{Query: "vpn"})
	require.NoError(t, err)
	second, err := client.Search(context.Background(), SearchRequest{Query: "vpn timeout"})
	require.NoError(t, err)
	assert.Greater(t, second.Seq, first.Seq)
}

func TestSearchNon2xxIsAnError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))

	_, err := client.Search(context.Background(), SearchRequest{Query: "vpn"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestExtractContextFallsBackToNeutral(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))

	insights := client.ExtractContext(context.Background(), domain.TicketContext{TicketID: "T-1"})
	assert.Equal(t, "neutral", insights.Sentiment)
	assert.Empty(t, insights.Keywords)
	assert.Empty(t, insights.Entities)
}

func TestTrackEventSwallowsFailures(t *testing.T) {
	var calls atomic.Int64
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/research/track-search", r.URL.Path)
		http.Error(w, "telemetry down", http.StatusServiceUnavailable)
	}))

	// must not panic or surface an error
	client.TrackEvent(context.Background(), "search", map[string]any{"query": "vpn"})
	assert.Equal(t, int64(1), calls.Load())
}

func TestPrioritizeRoundTrip(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/prioritize", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"prioritized_results": []map[string]any{
				{"id": "kb-2"}, {"id": "kb-1"},
			},
		})
	}))

	ranked, err := client.Prioritize(context.Background(),
		[]domain.SearchResult{{ID: "kb-1"}, {ID: "kb-2"}},
		domain.TicketContext{TicketID: "T-1"}, "sess-1")
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "kb-2", ranked[0].ID)
}
