package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-workbench/internal/domain"
	"github.com/spec-kit/support-workbench/internal/repository"
	"github.com/spec-kit/support-workbench/internal/session"
	apperrors "github.com/spec-kit/support-workbench/pkg/util"
)

// SessionService owns the per-agent tab managers and the redis-backed saved
// sessions. Tab state is process-local; saved sessions survive restarts.
type SessionService struct {
	mu       sync.Mutex
	managers map[string]*session.Manager

	store  repository.ResearchStore
	logger *zap.Logger
}

// NewSessionService constructs the service.
func NewSessionService(store repository.ResearchStore, logger *zap.Logger) *SessionService {
	return &SessionService{
		managers: make(map[string]*session.Manager),
		store:    store,
		logger:   logger,
	}
}

// ManagerFor returns the agent's tab manager, creating it with the default
// tab on first access.
func (s *SessionService) ManagerFor(agentID string) *session.Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.managers[agentID]
	if !ok {
		m = session.NewManager(agentID)
		s.managers[agentID] = m
	}
	return m
}

// Tabs lists the agent's tabs in display order.
func (s *SessionService) Tabs(agentID string) []domain.ResearchTab {
	return s.ManagerFor(agentID).Tabs()
}

// CreateTab opens a new tab and activates it.
func (s *SessionService) CreateTab(agentID, label string) domain.ResearchTab {
	return s.ManagerFor(agentID).CreateTab(label)
}

// CloseTab removes a tab; closing the last tab resets it instead.
func (s *SessionService) CloseTab(agentID, tabID string) error {
	return s.ManagerFor(agentID).CloseTab(tabID)
}

// ActivateTab makes the given tab the active one.
func (s *SessionService) ActivateTab(agentID, tabID string) error {
	return s.ManagerFor(agentID).SwitchTo(tabID)
}

// DuplicateTab clones a tab's query, filters and results under a fresh id.
func (s *SessionService) DuplicateTab(agentID, tabID string) (domain.ResearchTab, error) {
	return s.ManagerFor(agentID).DuplicateTab(tabID)
}

// ReorderTabs swaps two tab positions.
func (s *SessionService) ReorderTabs(agentID string, from, to int) error {
	return s.ManagerFor(agentID).Reorder(from, to)
}

// SetTicketContext attaches or clears a tab's ticket context.
func (s *SessionService) SetTicketContext(agentID, tabID string, ticketCtx *domain.TicketContext) error {
	return s.ManagerFor(agentID).SetTicketContext(tabID, ticketCtx)
}

// ExportTabs serializes the agent's tab set for download.
func (s *SessionService) ExportTabs(agentID string) ([]byte, error) {
	blob, err := s.ManagerFor(agentID).Export()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return blob, nil
}

// ImportTabs replaces the agent's tab set from an exported blob. Imported
// tabs get fresh ids.
func (s *SessionService) ImportTabs(agentID string, blob []byte) error {
	if err := s.ManagerFor(agentID).Import(blob); err != nil {
		return apperrors.NewValidationError("invalid session export", map[string]any{"reason": err.Error()})
	}
	return nil
}

// SaveSession snapshots the agent's tabs under a name. The store keeps the
// most recent snapshots and evicts the oldest beyond its bound.
func (s *SessionService) SaveSession(ctx context.Context, agentID, name string) (domain.SavedSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.SavedSession{}, apperrors.NewValidationError("session name required", nil)
	}
	saved := domain.SavedSession{
		Name:    name,
		AgentID: agentID,
		Tabs:    s.ManagerFor(agentID).Tabs(),
		SavedAt: time.Now(),
	}
	if err := s.store.SaveSession(ctx, saved); err != nil {
		return domain.SavedSession{}, apperrors.MapError(err)
	}
	s.logger.Info("research session saved",
		zap.String("agent_id", agentID),
		zap.String("name", name),
		zap.Int("tabs", len(saved.Tabs)),
	)
	return saved, nil
}

// ListSavedSessions lists the agent's saved snapshots, newest first.
func (s *SessionService) ListSavedSessions(ctx context.Context, agentID string) ([]domain.SavedSession, error) {
	sessions, err := s.store.ListSessions(ctx, agentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return sessions, nil
}

// LoadSession replaces the agent's live tabs with a saved snapshot.
func (s *SessionService) LoadSession(ctx context.Context, agentID, name string) ([]domain.ResearchTab, error) {
	saved, err := s.store.LoadSession(ctx, agentID, name)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if saved == nil {
		return nil, apperrors.NewNotFound("saved session", map[string]any{"name": name})
	}
	m := s.ManagerFor(agentID)
	if err := m.Restore(saved.Tabs); err != nil {
		return nil, apperrors.NewValidationError("saved session is empty", nil)
	}
	return m.Tabs(), nil
}
