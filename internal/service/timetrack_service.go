package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-workbench/internal/domain"
	"github.com/spec-kit/support-workbench/internal/events"
	"github.com/spec-kit/support-workbench/internal/repository"
	"github.com/spec-kit/support-workbench/internal/timetrack"
	apperrors "github.com/spec-kit/support-workbench/pkg/util"
)

// TimeTrackService runs live time trackers on top of persisted sessions.
// Active trackers live in memory; every mutation writes the session row so a
// restart can resume from the stored intervals.
type TimeTrackService struct {
	repo       repository.TimeSessionRepository
	dispatcher events.Dispatcher
	clock      timetrack.Clock

	mu      sync.Mutex
	active  map[string]*timetrack.Tracker
	byAgent map[string]string
}

// NewTimeTrackService constructs the service.
func NewTimeTrackService(repo repository.TimeSessionRepository, dispatcher events.Dispatcher) *TimeTrackService {
	return &TimeTrackService{
		repo:       repo,
		dispatcher: dispatcher,
		clock:      time.Now,
		active:     make(map[string]*timetrack.Tracker),
		byAgent:    make(map[string]string),
	}
}

// StartSession opens a tracked session on a ticket. An agent tracks at most
// one session at a time.
func (s *TimeTrackService) StartSession(ctx context.Context, agent *domain.Agent, ticketID string) (*domain.TimeSession, error) {
	if ticketID == "" {
		return nil, apperrors.NewValidationError("ticket_id required", nil)
	}
	s.mu.Lock()
	if existing, ok := s.byAgent[agent.ID]; ok {
		s.mu.Unlock()
		return nil, apperrors.NewConflict("agent already has an active session", map[string]any{"session_id": existing})
	}
	s.mu.Unlock()

	// a session opened before a restart exists only in storage
	open, err := s.repo.OpenByAgent(ctx, agent.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if open != nil {
		return nil, apperrors.NewConflict("agent already has an active session", map[string]any{"session_id": open.ID})
	}

	s.mu.Lock()
	if existing, ok := s.byAgent[agent.ID]; ok {
		s.mu.Unlock()
		return nil, apperrors.NewConflict("agent already has an active session", map[string]any{"session_id": existing})
	}
	tracker := timetrack.Start(ticketID, agent.ID, s.clock)
	session := tracker.Session()
	s.active[session.ID] = tracker
	s.byAgent[agent.ID] = session.ID
	s.mu.Unlock()

	if err := s.repo.Create(ctx, session); err != nil {
		s.mu.Lock()
		delete(s.active, session.ID)
		delete(s.byAgent, agent.ID)
		s.mu.Unlock()
		return nil, apperrors.MapError(err)
	}
	return session, nil
}

// ChangePhase switches the open entry to a new work phase. Selecting the
// current phase is a no-op.
func (s *TimeTrackService) ChangePhase(ctx context.Context, agent *domain.Agent, sessionID string, phase domain.WorkPhase, description string) (*domain.TimeSession, error) {
	tracker, err := s.trackerFor(ctx, agent, sessionID)
	if err != nil {
		return nil, err
	}
	if err := tracker.ChangePhase(phase, description); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"phase": string(phase)})
	}
	return s.persist(ctx, tracker)
}

// PauseSession starts a break interval.
func (s *TimeTrackService) PauseSession(ctx context.Context, agent *domain.Agent, sessionID, reason string) (*domain.TimeSession, error) {
	tracker, err := s.trackerFor(ctx, agent, sessionID)
	if err != nil {
		return nil, err
	}
	if err := tracker.Pause(reason); err != nil {
		return nil, apperrors.NewConflict(err.Error(), nil)
	}
	return s.persist(ctx, tracker)
}

// ResumeSession closes the open break and reopens the interrupted phase.
func (s *TimeTrackService) ResumeSession(ctx context.Context, agent *domain.Agent, sessionID string) (*domain.TimeSession, error) {
	tracker, err := s.trackerFor(ctx, agent, sessionID)
	if err != nil {
		return nil, err
	}
	if err := tracker.ResumeWork(); err != nil {
		return nil, apperrors.NewConflict(err.Error(), nil)
	}
	return s.persist(ctx, tracker)
}

// EndSession closes the session, stamps efficiency, and emits the completion
// event used for reporting.
func (s *TimeTrackService) EndSession(ctx context.Context, agent *domain.Agent, sessionID string) (*domain.TimeSession, timetrack.SessionReport, error) {
	tracker, err := s.trackerFor(ctx, agent, sessionID)
	if err != nil {
		return nil, timetrack.SessionReport{}, err
	}
	session, err := tracker.End()
	if err != nil {
		return nil, timetrack.SessionReport{}, apperrors.NewConflict(err.Error(), nil)
	}
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, timetrack.SessionReport{}, apperrors.MapError(err)
	}

	s.mu.Lock()
	delete(s.active, session.ID)
	delete(s.byAgent, session.AgentID)
	s.mu.Unlock()

	report := timetrack.Report(session)
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTimeSessionCompleted,
			TicketID:  session.TicketID,
			AgentID:   session.AgentID,
			Timestamp: time.Now(),
			Payload: events.TimeSessionCompletedPayload{
				SessionID:  session.ID,
				Efficiency: session.Efficiency,
			},
		})
	}
	return session, report, nil
}

// GetSession returns a session's current state, live or persisted.
func (s *TimeTrackService) GetSession(ctx context.Context, agent *domain.Agent, sessionID string) (*domain.TimeSession, error) {
	s.mu.Lock()
	tracker, ok := s.active[sessionID]
	s.mu.Unlock()
	if ok {
		session := tracker.Session()
		if session.AgentID != agent.ID && agent.Role == domain.AgentRoleAgent {
			return nil, apperrors.NewForbidden("access denied")
		}
		return session, nil
	}
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if session.AgentID != agent.ID && agent.Role == domain.AgentRoleAgent {
		return nil, apperrors.NewForbidden("access denied")
	}
	return session, nil
}

// SessionReport computes the duration breakdown and efficiency for a session.
func (s *TimeTrackService) SessionReport(ctx context.Context, agent *domain.Agent, sessionID string) (timetrack.SessionReport, error) {
	session, err := s.GetSession(ctx, agent, sessionID)
	if err != nil {
		return timetrack.SessionReport{}, err
	}
	return timetrack.Report(session), nil
}

// TicketSessions lists every session recorded against a ticket.
func (s *TimeTrackService) TicketSessions(ctx context.Context, ticketID string) ([]domain.TimeSession, error) {
	sessions, err := s.repo.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return sessions, nil
}

// trackerFor returns the live tracker, rehydrating a paused or active
// session from storage after a restart.
func (s *TimeTrackService) trackerFor(ctx context.Context, agent *domain.Agent, sessionID string) (*timetrack.Tracker, error) {
	s.mu.Lock()
	tracker, ok := s.active[sessionID]
	s.mu.Unlock()
	if ok {
		if tracker.Session().AgentID != agent.ID {
			return nil, apperrors.NewForbidden("access denied")
		}
		return tracker, nil
	}

	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if session.AgentID != agent.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	if session.Status == domain.SessionCompleted {
		return nil, apperrors.NewConflict("session already completed", nil)
	}
	tracker = timetrack.Resume(session, s.clock)
	s.mu.Lock()
	s.active[sessionID] = tracker
	s.byAgent[agent.ID] = sessionID
	s.mu.Unlock()
	return tracker, nil
}

func (s *TimeTrackService) persist(ctx context.Context, tracker *timetrack.Tracker) (*domain.TimeSession, error) {
	session := tracker.Session()
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, apperrors.MapError(err)
	}
	return session, nil
}
