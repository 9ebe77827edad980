package dto

import "github.com/spec-kit/support-workbench/internal/domain"

// CreateTabRequest opens a new research tab.
type CreateTabRequest struct {
	Label string `json:"label"`
}

// ReorderTabsRequest swaps two tab positions.
type ReorderTabsRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// TicketContextRequest attaches or clears a tab's ticket context.
type TicketContextRequest struct {
	TicketContext *domain.TicketContext `json:"ticket_context"`
}

// SaveSessionRequest snapshots the tab set under a name.
type SaveSessionRequest struct {
	Name string `json:"name"`
}

// TabsResponse is the agent's tab set in display order.
type TabsResponse struct {
	Tabs []domain.ResearchTab `json:"tabs"`
}
