package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/support-workbench/internal/domain"
)

// ResearchStore keeps per-agent research state in Redis: named saved
// sessions (a bounded most-recent list) and query history.
type ResearchStore interface {
	SaveSession(ctx context.Context, session domain.SavedSession) error
	ListSessions(ctx context.Context, agentID string) ([]domain.SavedSession, error)
	// LoadSession returns (nil, nil) when no snapshot has the given name.
	LoadSession(ctx context.Context, agentID, name string) (*domain.SavedSession, error)
	PushQuery(ctx context.Context, agentID string, record domain.QueryRecord) error
	QueryHistory(ctx context.Context, agentID string) ([]domain.QueryRecord, error)
	ClearQueryHistory(ctx context.Context, agentID string) error
}

type researchStore struct {
	client      *redis.Client
	maxSessions int
	maxHistory  int
}

// NewResearchStore instantiates the store with its retention bounds.
func NewResearchStore(client *redis.Client, maxSessions, maxHistory int) ResearchStore {
	if maxSessions <= 0 {
		maxSessions = 10
	}
	if maxHistory <= 0 {
		maxHistory = 50
	}
	return &researchStore{client: client, maxSessions: maxSessions, maxHistory: maxHistory}
}

func sessionsKey(agentID string) string { return "research:sessions:" + agentID }
func historyKey(agentID string) string  { return "research:history:" + agentID }

func (s *researchStore) SaveSession(ctx context.Context, session domain.SavedSession) error {
	if session.SavedAt.IsZero() {
		session.SavedAt = time.Now()
	}
	encoded, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode saved session: %w", err)
	}
	key := sessionsKey(session.AgentID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, encoded)
	pipe.LTrim(ctx, key, 0, int64(s.maxSessions-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *researchStore) ListSessions(ctx context.Context, agentID string) ([]domain.SavedSession, error) {
	raw, err := s.client.LRange(ctx, sessionsKey(agentID), 0, int64(s.maxSessions-1)).Result()
	if err != nil {
		return nil, err
	}
	sessions := make([]domain.SavedSession, 0, len(raw))
	for _, item := range raw {
		var session domain.SavedSession
		if err := json.Unmarshal([]byte(item), &session); err != nil {
			continue // skip corrupt entries rather than failing the listing
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *researchStore) LoadSession(ctx context.Context, agentID, name string) (*domain.SavedSession, error) {
	sessions, err := s.ListSessions(ctx, agentID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].Name == name {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

func (s *researchStore) PushQuery(ctx context.Context, agentID string, record domain.QueryRecord) error {
	if record.SearchedAt.IsZero() {
		record.SearchedAt = time.Now()
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode query record: %w", err)
	}
	key := historyKey(agentID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, encoded)
	pipe.LTrim(ctx, key, 0, int64(s.maxHistory-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *researchStore) QueryHistory(ctx context.Context, agentID string) ([]domain.QueryRecord, error) {
	raw, err := s.client.LRange(ctx, historyKey(agentID), 0, int64(s.maxHistory-1)).Result()
	if err != nil {
		return nil, err
	}
	records := make([]domain.QueryRecord, 0, len(raw))
	for _, item := range raw {
		var record domain.QueryRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *researchStore) ClearQueryHistory(ctx context.Context, agentID string) error {
	return s.client.Del(ctx, historyKey(agentID)).Err()
}
