package timetrack

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-workbench/internal/domain"
)

// Clock abstracts time for testability.
type Clock func() time.Time

// Tracker drives one ticket's time session through its lifecycle. While the
// session is active at most one entry is open; pausing closes the entry and
// opens a break, resuming closes the break and reopens the prior phase.
type Tracker struct {
	session   *domain.TimeSession
	now       Clock
	lastPhase domain.WorkPhase
}

var (
	ErrNotActive        = errors.New("time session is not active")
	ErrNotPaused        = errors.New("time session is not paused")
	ErrAlreadyCompleted = errors.New("time session already completed")
	ErrUnknownPhase     = errors.New("unknown work phase")
)

// Start opens a session with the first entry in the investigation phase.
func Start(ticketID, agentID string, now Clock) *Tracker {
	if now == nil {
		now = time.Now
	}
	start := now()
	t := &Tracker{
		session: &domain.TimeSession{
			ID:           uuid.NewString(),
			TicketID:     ticketID,
			AgentID:      agentID,
			SessionStart: start,
			Entries:      []domain.TimeEntry{},
			Breaks:       []domain.Break{},
			Status:       domain.SessionActive,
		},
		now:       now,
		lastPhase: domain.WorkInvestigation,
	}
	t.openEntry(domain.WorkInvestigation, "")
	return t
}

// Resume rebuilds a tracker over a previously persisted session.
func Resume(session *domain.TimeSession, now Clock) *Tracker {
	if now == nil {
		now = time.Now
	}
	t := &Tracker{session: session, now: now, lastPhase: domain.WorkInvestigation}
	if open := t.openEntryIndex(); open >= 0 {
		t.lastPhase = session.Entries[open].Phase
	} else if n := len(session.Entries); n > 0 {
		t.lastPhase = session.Entries[n-1].Phase
	}
	return t
}

// Session returns the underlying session state.
func (t *Tracker) Session() *domain.TimeSession {
	return t.session
}

// ChangePhase closes the current entry and opens one in the new phase.
// Switching to the phase already open is a no-op, which keeps rapid
// double-clicks from producing duplicate entries.
func (t *Tracker) ChangePhase(phase domain.WorkPhase, description string) error {
	if t.session.Status != domain.SessionActive {
		return ErrNotActive
	}
	if !domain.ValidWorkPhase(phase) {
		return ErrUnknownPhase
	}
	if open := t.openEntryIndex(); open >= 0 && t.session.Entries[open].Phase == phase {
		return nil
	}
	t.closeOpenEntry()
	t.openEntry(phase, description)
	t.lastPhase = phase
	return nil
}

// Pause closes the current entry and opens a break record.
func (t *Tracker) Pause(reason string) error {
	switch t.session.Status {
	case domain.SessionCompleted:
		return ErrAlreadyCompleted
	case domain.SessionPaused:
		return ErrNotActive
	}
	t.closeOpenEntry()
	t.session.Breaks = append(t.session.Breaks, domain.Break{Start: t.now(), Reason: reason})
	t.session.Status = domain.SessionPaused
	return nil
}

// ResumeWork closes the open break and reopens the previously tracked phase.
func (t *Tracker) ResumeWork() error {
	if t.session.Status != domain.SessionPaused {
		return ErrNotPaused
	}
	if n := len(t.session.Breaks); n > 0 && t.session.Breaks[n-1].End == nil {
		end := t.now()
		t.session.Breaks[n-1].End = &end
		t.session.Breaks[n-1].Duration = end.Sub(t.session.Breaks[n-1].Start)
	}
	t.session.Status = domain.SessionActive
	t.openEntry(t.lastPhase, "")
	return nil
}

// End completes the session, closing any open entry or break, and stamps
// the aggregate efficiency.
func (t *Tracker) End() (*domain.TimeSession, error) {
	if t.session.Status == domain.SessionCompleted {
		return nil, ErrAlreadyCompleted
	}
	t.closeOpenEntry()
	if n := len(t.session.Breaks); n > 0 && t.session.Breaks[n-1].End == nil {
		end := t.now()
		t.session.Breaks[n-1].End = &end
		t.session.Breaks[n-1].Duration = end.Sub(t.session.Breaks[n-1].Start)
	}
	end := t.now()
	t.session.SessionEnd = &end
	t.session.Status = domain.SessionCompleted
	t.session.Efficiency = Report(t.session).Efficiency
	return t.session, nil
}

func (t *Tracker) openEntry(phase domain.WorkPhase, description string) {
	t.session.Entries = append(t.session.Entries, domain.TimeEntry{
		ID:          uuid.NewString(),
		Phase:       phase,
		StartTime:   t.now(),
		Description: description,
	})
}

func (t *Tracker) closeOpenEntry() {
	if open := t.openEntryIndex(); open >= 0 {
		end := t.now()
		t.session.Entries[open].EndTime = &end
		t.session.Entries[open].Duration = end.Sub(t.session.Entries[open].StartTime)
	}
}

func (t *Tracker) openEntryIndex() int {
	for i := range t.session.Entries {
		if t.session.Entries[i].EndTime == nil {
			return i
		}
	}
	return -1
}

// SessionReport aggregates a session's derived metrics.
type SessionReport struct {
	TotalDuration   time.Duration                      `json:"total_duration"`
	ActiveWork      time.Duration                      `json:"active_work"`
	BreakTime       time.Duration                      `json:"break_time"`
	Efficiency      float64                            `json:"efficiency"`
	PhaseBreakdown  map[domain.WorkPhase]time.Duration `json:"phase_breakdown"`
	Recommendations []string                           `json:"recommendations"`
}

// Report computes derived metrics for a session. Efficiency is
// activeWork/total*100 rounded to two decimals, zero for an empty session.
func Report(session *domain.TimeSession) SessionReport {
	end := time.Now()
	if session.SessionEnd != nil {
		end = *session.SessionEnd
	}
	total := end.Sub(session.SessionStart)
	if total < 0 {
		total = 0
	}

	var breakTime time.Duration
	for _, b := range session.Breaks {
		if b.End != nil {
			breakTime += b.End.Sub(b.Start)
		} else {
			breakTime += end.Sub(b.Start)
		}
	}

	active := total - breakTime
	if active < 0 {
		active = 0
	}

	efficiency := 0.0
	if total > 0 {
		efficiency = round2(float64(active) / float64(total) * 100)
	}

	breakdown := make(map[domain.WorkPhase]time.Duration)
	for _, entry := range session.Entries {
		entryEnd := end
		if entry.EndTime != nil {
			entryEnd = *entry.EndTime
		}
		breakdown[entry.Phase] += entryEnd.Sub(entry.StartTime)
	}

	return SessionReport{
		TotalDuration:   total,
		ActiveWork:      active,
		BreakTime:       breakTime,
		Efficiency:      efficiency,
		PhaseBreakdown:  breakdown,
		Recommendations: recommendations(efficiency, breakdown, total),
	}
}

// recommendations returns static advisory thresholds; no corrective action
// is ever taken automatically.
func recommendations(efficiency float64, breakdown map[domain.WorkPhase]time.Duration, total time.Duration) []string {
	recs := []string{}
	if total == 0 {
		return recs
	}
	if efficiency < 70 {
		recs = append(recs, "efficiency below 70%: consider reducing interruptions")
	}
	if investigation := breakdown[domain.WorkInvestigation]; total > 0 && investigation > total/2 {
		recs = append(recs, "over half the session spent investigating: consider escalating or consulting the knowledge base earlier")
	}
	if breakdown[domain.WorkDocumentation] == 0 {
		recs = append(recs, "no documentation time recorded: document the fix before closing")
	}
	return recs
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
