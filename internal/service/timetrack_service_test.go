package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-workbench/internal/domain"
	apperrors "github.com/spec-kit/support-workbench/pkg/util"
)

type fakeTimeSessionRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.TimeSession
}

func newFakeTimeSessionRepo() *fakeTimeSessionRepo {
	return &fakeTimeSessionRepo{rows: make(map[string]*domain.TimeSession)}
}

func (r *fakeTimeSessionRepo) Create(_ context.Context, session *domain.TimeSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *session
	r.rows[session.ID] = &clone
	return nil
}

func (r *fakeTimeSessionRepo) Update(_ context.Context, session *domain.TimeSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *session
	r.rows[session.ID] = &clone
	return nil
}

func (r *fakeTimeSessionRepo) GetByID(_ context.Context, id string) (*domain.TimeSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.rows[id]
	if !ok {
		return nil, apperrors.NewNotFound("time session", nil)
	}
	clone := *session
	return &clone, nil
}

func (r *fakeTimeSessionRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TimeSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TimeSession
	for _, session := range r.rows {
		if session.TicketID == ticketID {
			out = append(out, *session)
		}
	}
	return out, nil
}

func (r *fakeTimeSessionRepo) OpenByAgent(_ context.Context, agentID string) (*domain.TimeSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.rows {
		if session.AgentID == agentID && session.Status != domain.SessionCompleted {
			clone := *session
			return &clone, nil
		}
	}
	return nil, nil
}

func trackingAgent() *domain.Agent {
	return &domain.Agent{ID: "agent-1", Role: domain.AgentRoleAgent, IsActive: true}
}

func TestStartSessionOnePerAgent(t *testing.T) {
	svc := NewTimeTrackService(newFakeTimeSessionRepo(), &capturingDispatcher{})
	ctx := context.Background()

	first, err := svc.StartSession(ctx, trackingAgent(), "T-100")
	require.NoError(t, err)

	_, err = svc.StartSession(ctx, trackingAgent(), "T-200")
	require.Error(t, err)
	derr := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", derr.Code)
	assert.Equal(t, first.ID, derr.Details["session_id"])
}

func TestStartSessionRejectsOpenStoredSession(t *testing.T) {
	repo := newFakeTimeSessionRepo()
	stored := &domain.TimeSession{
		ID:           "ts-restart",
		TicketID:     "T-100",
		AgentID:      "agent-1",
		SessionStart: time.Now().Add(-time.Hour),
		Status:       domain.SessionPaused,
	}
	require.NoError(t, repo.Create(context.Background(), stored))

	// fresh service, as after a process restart: no live trackers
	svc := NewTimeTrackService(repo, &capturingDispatcher{})

	_, err := svc.StartSession(context.Background(), trackingAgent(), "T-200")
	require.Error(t, err)
	derr := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", derr.Code)
	assert.Equal(t, "ts-restart", derr.Details["session_id"])
}

func TestStartSessionAllowedAfterEnd(t *testing.T) {
	svc := NewTimeTrackService(newFakeTimeSessionRepo(), &capturingDispatcher{})
	ctx := context.Background()

	session, err := svc.StartSession(ctx, trackingAgent(), "T-100")
	require.NoError(t, err)

	_, _, err = svc.EndSession(ctx, trackingAgent(), session.ID)
	require.NoError(t, err)

	next, err := svc.StartSession(ctx, trackingAgent(), "T-200")
	require.NoError(t, err)
	assert.NotEqual(t, session.ID, next.ID)
}
