package dto

import (
	"time"

	"github.com/spec-kit/support-workbench/internal/domain"
	"github.com/spec-kit/support-workbench/internal/service"
)

// SearchRequest runs a general search on a tab.
type SearchRequest struct {
	TabID   string               `json:"tab_id"`
	Query   string               `json:"query"`
	Filters domain.SearchFilters `json:"filters"`
}

// ContextualSearchRequest runs a ticket-aware search on a tab.
type ContextualSearchRequest struct {
	TabID         string               `json:"tab_id"`
	Query         string               `json:"query"`
	Filters       domain.SearchFilters `json:"filters"`
	TicketContext domain.TicketContext `json:"ticket_context"`
}

// ExtractContextRequest asks for insights about a ticket.
type ExtractContextRequest struct {
	TicketContext domain.TicketContext `json:"ticket_context"`
}

// SuggestRequest feeds one keystroke into the suggestion debouncer.
type SuggestRequest struct {
	Query string `json:"query"`
}

// TrackEventRequest relays a research analytics event.
type TrackEventRequest struct {
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
}

// SearchResponse is one search round-trip.
type SearchResponse struct {
	Results      []domain.SearchResult `json:"results"`
	TotalCount   int                   `json:"total_count"`
	SearchTimeMS int                   `json:"search_time"`
	Confidence   int                   `json:"confidence"`
	Applied      bool                  `json:"applied"`
}

// NewSearchResponse maps a service outcome onto the wire shape.
func NewSearchResponse(outcome *service.SearchOutcome) SearchResponse {
	results := outcome.Results
	if results == nil {
		results = []domain.SearchResult{}
	}
	return SearchResponse{
		Results:      results,
		TotalCount:   outcome.TotalCount,
		SearchTimeMS: outcome.SearchTimeMS,
		Confidence:   outcome.Confidence,
		Applied:      outcome.Applied,
	}
}

// QueryHistoryEntry is one history record on the wire.
type QueryHistoryEntry struct {
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	SearchedAt  time.Time `json:"searched_at"`
}
