package domain

import "time"

// WorkPhase labels a tracked interval of ticket work.
type WorkPhase string

const (
	WorkInvestigation  WorkPhase = "investigation"
	WorkAnalysis       WorkPhase = "analysis"
	WorkImplementation WorkPhase = "implementation"
	WorkTesting        WorkPhase = "testing"
	WorkDocumentation  WorkPhase = "documentation"
	WorkCommunication  WorkPhase = "communication"
)

// WorkPhases lists the valid tracked phases.
var WorkPhases = []WorkPhase{
	WorkInvestigation,
	WorkAnalysis,
	WorkImplementation,
	WorkTesting,
	WorkDocumentation,
	WorkCommunication,
}

// ValidWorkPhase reports whether the label is a known phase.
func ValidWorkPhase(p WorkPhase) bool {
	for _, candidate := range WorkPhases {
		if candidate == p {
			return true
		}
	}
	return false
}

// SessionStatus enumerates time-session lifecycle states.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
)

// TimeEntry is one labeled work interval. An open entry has no EndTime.
type TimeEntry struct {
	ID          string        `json:"id"`
	Phase       WorkPhase     `json:"phase"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Description string        `json:"description,omitempty"`
}

// Break is an interruption interval between pause and resume.
type Break struct {
	Start    time.Time     `json:"start"`
	End      *time.Time    `json:"end,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

// TimeSession tracks work on a single ticket.
type TimeSession struct {
	ID           string        `json:"id"`
	TicketID     string        `json:"ticket_id"`
	AgentID      string        `json:"agent_id"`
	SessionStart time.Time     `json:"session_start"`
	SessionEnd   *time.Time    `json:"session_end,omitempty"`
	Entries      []TimeEntry   `json:"entries"`
	Breaks       []Break       `json:"breaks"`
	Status       SessionStatus `json:"status"`
	Efficiency   float64       `json:"efficiency"`
}
