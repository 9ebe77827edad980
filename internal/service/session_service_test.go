package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-workbench/internal/domain"
	apperrors "github.com/spec-kit/support-workbench/pkg/util"
)

type fakeResearchStore struct {
	mu      sync.Mutex
	saved   []domain.SavedSession
	history map[string][]domain.QueryRecord
}

func newFakeResearchStore() *fakeResearchStore {
	return &fakeResearchStore{history: make(map[string][]domain.QueryRecord)}
}

func (s *fakeResearchStore) SaveSession(_ context.Context, session domain.SavedSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append([]domain.SavedSession{session}, s.saved...)
	return nil
}

func (s *fakeResearchStore) ListSessions(_ context.Context, agentID string) ([]domain.SavedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SavedSession
	for _, session := range s.saved {
		if session.AgentID == agentID {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *fakeResearchStore) LoadSession(_ context.Context, agentID, name string) (*domain.SavedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.saved {
		if s.saved[i].AgentID == agentID && s.saved[i].Name == name {
			clone := s.saved[i]
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *fakeResearchStore) PushQuery(_ context.Context, agentID string, record domain.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[agentID] = append([]domain.QueryRecord{record}, s.history[agentID]...)
	return nil
}

func (s *fakeResearchStore) QueryHistory(_ context.Context, agentID string) ([]domain.QueryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history[agentID], nil
}

func (s *fakeResearchStore) ClearQueryHistory(_ context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, agentID)
	return nil
}

func TestLoadSessionUnknownNameIsNotFound(t *testing.T) {
	svc := NewSessionService(newFakeResearchStore(), zap.NewNop())

	_, err := svc.LoadSession(context.Background(), "agent-1", "no-such-snapshot")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestSaveAndLoadSessionRoundTrip(t *testing.T) {
	svc := NewSessionService(newFakeResearchStore(), zap.NewNop())
	ctx := context.Background()

	svc.CreateTab("agent-1", "VPN research")
	saved, err := svc.SaveSession(ctx, "agent-1", "morning")
	require.NoError(t, err)
	require.Len(t, saved.Tabs, 2)

	tabs, err := svc.LoadSession(ctx, "agent-1", "morning")
	require.NoError(t, err)
	assert.Len(t, tabs, 2)
}

func TestLoadSessionIsScopedToAgent(t *testing.T) {
	svc := NewSessionService(newFakeResearchStore(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.SaveSession(ctx, "agent-1", "mine")
	require.NoError(t, err)

	_, err = svc.LoadSession(ctx, "agent-2", "mine")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}
