package dto

import (
	"time"

	"github.com/spec-kit/support-workbench/internal/timetrack"
)

// StartSessionRequest opens a tracked session on a ticket.
type StartSessionRequest struct {
	TicketID string `json:"ticket_id"`
}

// ChangePhaseRequest switches the tracked work phase.
type ChangePhaseRequest struct {
	Phase       string `json:"phase"`
	Description string `json:"description,omitempty"`
}

// PauseSessionRequest starts a break.
type PauseSessionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// SessionReportResponse is the computed duration breakdown.
type SessionReportResponse struct {
	TotalDuration   string            `json:"total_duration"`
	ActiveWork      string            `json:"active_work"`
	BreakTime       string            `json:"break_time"`
	Efficiency      float64           `json:"efficiency"`
	PhaseBreakdown  map[string]string `json:"phase_breakdown"`
	Recommendations []string          `json:"recommendations"`
}

// NewSessionReportResponse maps a report onto the wire shape.
func NewSessionReportResponse(report timetrack.SessionReport) SessionReportResponse {
	breakdown := make(map[string]string, len(report.PhaseBreakdown))
	for phase, d := range report.PhaseBreakdown {
		breakdown[string(phase)] = formatDuration(d)
	}
	recs := report.Recommendations
	if recs == nil {
		recs = []string{}
	}
	return SessionReportResponse{
		TotalDuration:   formatDuration(report.TotalDuration),
		ActiveWork:      formatDuration(report.ActiveWork),
		BreakTime:       formatDuration(report.BreakTime),
		Efficiency:      report.Efficiency,
		PhaseBreakdown:  breakdown,
		Recommendations: recs,
	}
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}
