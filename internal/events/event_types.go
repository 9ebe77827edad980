package events

import (
	"time"

	"github.com/spec-kit/support-workbench/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventWorkflowCreated      EventType = "workflow_created"
	EventPhaseChanged         EventType = "workflow_phase_changed"
	EventVerificationUpdated  EventType = "verification_updated"
	EventVerificationOverride EventType = "verification_overridden"
	EventEscalationRaised     EventType = "escalation_raised"
	EventWorkflowClosed       EventType = "workflow_closed"
	EventTimeSessionCompleted EventType = "time_session_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	WorkflowID string      `json:"workflow_id,omitempty"`
	TicketID   string      `json:"ticket_id"`
	AgentID    string      `json:"agent_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// PhaseChangedPayload payload.
type PhaseChangedPayload struct {
	OldPhase domain.WorkflowPhase `json:"old_phase"`
	NewPhase domain.WorkflowPhase `json:"new_phase"`
	Ticket   TicketPatch          `json:"ticket_patch"`
}

// TicketPatch is the partial update relayed to the external ticket system
// on every phase transition.
type TicketPatch struct {
	Status    string     `json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// VerificationUpdatedPayload payload.
type VerificationUpdatedPayload struct {
	FieldID  domain.VerificationFieldID `json:"field_id"`
	Status   domain.VerificationState   `json:"status"`
	Attempts int                        `json:"attempts"`
	Blocked  bool                       `json:"blocked"`
}

// VerificationOverridePayload payload.
type VerificationOverridePayload struct {
	Reason        string   `json:"reason"`
	MissingFields []string `json:"missing_fields"`
}

// EscalationRaisedPayload payload.
type EscalationRaisedPayload struct {
	Target   string `json:"target"`
	Reason   string `json:"reason"`
	Priority string `json:"priority"`
}

// WorkflowClosedPayload payload.
type WorkflowClosedPayload struct {
	FinalStatus      string `json:"final_status"`
	CustomerNotified bool   `json:"customer_notified"`
}

// TimeSessionCompletedPayload payload.
type TimeSessionCompletedPayload struct {
	SessionID  string  `json:"session_id"`
	Efficiency float64 `json:"efficiency"`
}
