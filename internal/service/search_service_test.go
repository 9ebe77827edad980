package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-workbench/internal/config"
	"github.com/spec-kit/support-workbench/internal/domain"
	"github.com/spec-kit/support-workbench/internal/search"
)

func newTestSearchService(t *testing.T, mux *http.ServeMux) (*SearchService, string) {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := config.SearchConfig{
		BaseURL:            server.URL,
		RequestTimeoutSec:  2,
		SuggestDebounceMS:  10,
		SuggestMinQueryLen: 2,
	}
	store := newFakeResearchStore()
	sessions := NewSessionService(store, zap.NewNop())
	client := search.NewClient(cfg, zap.NewNop(), nil)
	svc := NewSearchService(client, sessions, store, cfg, zap.NewNop())

	tabID := sessions.Tabs("agent-1")[0].ID
	return svc, tabID
}

func writeResults(w http.ResponseWriter, results []domain.SearchResult) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"results":     results,
		"total_count": len(results),
		"search_time": 5,
	})
}

func TestSearchReturnsBeforeAnalyticsDelivery(t *testing.T) {
	tracked := make(chan struct{}, 1)
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/search/integrated", func(w http.ResponseWriter, _ *http.Request) {
		writeResults(w, []domain.SearchResult{{ID: "kb-1", Title: "VPN reset"}})
	})
	mux.HandleFunc("/research/track-search", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case tracked <- struct{}{}:
		default:
		}
		<-release
		w.WriteHeader(http.StatusNoContent)
	})

	svc, tabID := newTestSearchService(t, mux)

	started := time.Now()
	outcome, err := svc.Search(context.Background(), "agent-1", tabID, "vpn down", domain.SearchFilters{})
	elapsed := time.Since(started)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Len(t, outcome.Results, 1)
	assert.Less(t, elapsed, time.Second, "search blocked on the analytics POST")

	// the search already returned; the analytics POST must still arrive
	select {
	case <-tracked:
	case <-time.After(time.Second):
		t.Fatal("analytics event was never dispatched")
	}
	close(release)
}

func TestContextualSearchReturnsBeforeAnalyticsDelivery(t *testing.T) {
	tracked := make(chan struct{}, 1)
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/search/integrated", func(w http.ResponseWriter, _ *http.Request) {
		writeResults(w, []domain.SearchResult{{ID: "kb-1", Title: "VPN reset"}})
	})
	mux.HandleFunc("/search/contextual", func(w http.ResponseWriter, _ *http.Request) {
		writeResults(w, []domain.SearchResult{{ID: "kb-2", Title: "VPN certificate renewal"}})
	})
	mux.HandleFunc("/search/prioritize", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"prioritized_results": []domain.SearchResult{}})
	})
	mux.HandleFunc("/research/track-contextual-search", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case tracked <- struct{}{}:
		default:
		}
		<-release
		w.WriteHeader(http.StatusNoContent)
	})

	svc, tabID := newTestSearchService(t, mux)

	ticketCtx := domain.TicketContext{TicketID: "T-100", Title: "VPN outage"}
	started := time.Now()
	outcome, err := svc.ContextualSearch(context.Background(), "agent-1", tabID, "vpn down", domain.SearchFilters{}, ticketCtx)
	elapsed := time.Since(started)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Len(t, outcome.Results, 2)
	assert.Less(t, elapsed, time.Second, "contextual search blocked on the analytics POST")

	select {
	case <-tracked:
	case <-time.After(time.Second):
		t.Fatal("analytics event was never dispatched")
	}
	close(release)
}
