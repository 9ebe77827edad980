package domain

import "time"

// ResearchTab is one named search context on the research workbench.
type ResearchTab struct {
	ID            string         `json:"id"`
	Label         string         `json:"label"`
	Query         string         `json:"query"`
	Filters       SearchFilters  `json:"filters"`
	Results       []SearchResult `json:"results"`
	IsActive      bool           `json:"is_active"`
	TicketContext *TicketContext `json:"ticket_context,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`

	// LastSeq is the sequence number of the last search response applied
	// to this tab; responses with lower numbers are stale and discarded.
	LastSeq uint64 `json:"-"`
}

// SavedSession is a named snapshot of an agent's tab set.
type SavedSession struct {
	Name    string        `json:"name"`
	AgentID string        `json:"agent_id"`
	Tabs    []ResearchTab `json:"tabs"`
	SavedAt time.Time     `json:"saved_at"`
}
