package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-workbench/internal/config"
	"github.com/spec-kit/support-workbench/internal/domain"
	"github.com/spec-kit/support-workbench/internal/observability"
)

// Client talks to the external knowledge-base search API. Every search
// response carries a monotonic sequence number so callers can discard
// responses that complete out of issuance order.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
	metrics    *observability.Metrics
	seq        atomic.Uint64
}

// NewClient builds the API client.
func NewClient(cfg config.SearchConfig, logger *zap.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout()},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logger,
		metrics:    metrics,
	}
}

// SearchRequest is the integrated-search payload.
type SearchRequest struct {
	Query         string                `json:"query"`
	Filters       domain.SearchFilters  `json:"filters"`
	TicketContext *domain.TicketContext `json:"ticket_context,omitempty"`
	SessionID     string                `json:"session_id,omitempty"`
}

// SearchResponse is the integrated-search result set.
type SearchResponse struct {
	Seq          uint64                `json:"-"`
	Results      []domain.SearchResult `json:"results"`
	TotalCount   int                   `json:"total_count"`
	SearchTimeMS int                   `json:"search_time"`
	Suggestions  []string              `json:"suggestions,omitempty"`
}

// ContextualRequest is the contextual-search payload.
type ContextualRequest struct {
	Query         string               `json:"query"`
	TicketContext domain.TicketContext `json:"ticket_context"`
	SessionID     string               `json:"session_id,omitempty"`
	Config        ContextualConfig     `json:"config"`
}

// ContextualConfig tunes server-side relevance evaluation.
type ContextualConfig struct {
	MaxResults   int     `json:"max_results,omitempty"`
	MinRelevance float64 `json:"min_relevance,omitempty"`
}

// Search issues one integrated search request, stamping a fresh sequence number.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	seq := c.seq.Add(1)
	var resp SearchResponse
	if err := c.post(ctx, "/search/integrated", req, &resp); err != nil {
		c.record("integrated", false)
		return nil, err
	}
	c.record("integrated", true)
	resp.Seq = seq
	return &resp, nil
}

// ContextualSearch calls the endpoint that scores relevance-to-ticket server-side.
func (c *Client) ContextualSearch(ctx context.Context, req ContextualRequest) (*SearchResponse, error) {
	seq := c.seq.Add(1)
	var payload struct {
		Results []domain.SearchResult `json:"results"`
	}
	if err := c.post(ctx, "/search/contextual", req, &payload); err != nil {
		c.record("contextual", false)
		return nil, err
	}
	c.record("contextual", true)
	return &SearchResponse{Seq: seq, Results: payload.Results, TotalCount: len(payload.Results)}, nil
}

// ExtractContext asks the API to mine keywords/entities from ticket fields.
// On failure it returns neutral defaults rather than an error: context
// enrichment must never break the search path.
func (c *Client) ExtractContext(ctx context.Context, ticketCtx domain.TicketContext) domain.ContextInsights {
	var insights domain.ContextInsights
	body := struct {
		TicketContext domain.TicketContext `json:"ticket_context"`
	}{TicketContext: ticketCtx}
	if err := c.post(ctx, "/search/extract-context", body, &insights); err != nil {
		c.logger.Warn("context extraction failed, using neutral defaults", zap.Error(err))
		c.record("extract-context", false)
		return domain.NeutralInsights()
	}
	c.record("extract-context", true)
	return insights
}

// Prioritize sends combined results for server-side re-ranking.
func (c *Client) Prioritize(ctx context.Context, results []domain.SearchResult, ticketCtx domain.TicketContext, sessionID string) ([]domain.SearchResult, error) {
	body := struct {
		Results       []domain.SearchResult `json:"results"`
		TicketContext domain.TicketContext  `json:"ticket_context"`
		SessionID     string                `json:"session_id,omitempty"`
	}{Results: results, TicketContext: ticketCtx, SessionID: sessionID}
	var payload struct {
		PrioritizedResults []domain.SearchResult `json:"prioritized_results"`
	}
	if err := c.post(ctx, "/search/prioritize", body, &payload); err != nil {
		c.record("prioritize", false)
		return nil, err
	}
	c.record("prioritize", true)
	return payload.PrioritizedResults, nil
}

// TrackEvent posts a research analytics event. Failures are logged and
// swallowed: telemetry never blocks the interactive path.
func (c *Client) TrackEvent(ctx context.Context, eventType string, payload map[string]any) {
	body := map[string]any{
		"type":    eventType,
		"payload": payload,
		"ts":      time.Now().UTC().Format(time.RFC3339),
	}
	if err := c.post(ctx, "/research/track-"+eventType, body, nil); err != nil {
		c.logger.Debug("analytics event dropped", zap.String("type", eventType), zap.Error(err))
		c.record("track", false)
		return
	}
	c.record("track", true)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("search api %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("search api %s: status %d: %s", path, resp.StatusCode, string(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) record(endpoint string, ok bool) {
	if c.metrics != nil {
		c.metrics.RecordSearch(endpoint, ok)
	}
}
