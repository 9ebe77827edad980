package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-workbench/internal/domain"
)

// TimeSessionRepository persists completed and in-flight time sessions.
type TimeSessionRepository interface {
	Create(ctx context.Context, session *domain.TimeSession) error
	Update(ctx context.Context, session *domain.TimeSession) error
	GetByID(ctx context.Context, id string) (*domain.TimeSession, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TimeSession, error)
	// OpenByAgent returns the agent's active or paused session, or (nil, nil)
	// when none exists.
	OpenByAgent(ctx context.Context, agentID string) (*domain.TimeSession, error)
}

type timeSessionRepository struct {
	pool *pgxpool.Pool
}

// NewTimeSessionRepository instantiates repository.
func NewTimeSessionRepository(pool *pgxpool.Pool) TimeSessionRepository {
	return &timeSessionRepository{pool: pool}
}

func (r *timeSessionRepository) Create(ctx context.Context, session *domain.TimeSession) error {
	entries, breaks, err := marshalIntervals(session)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO time_sessions (id, ticket_id, agent_id, session_start, session_end, entries, breaks, status, efficiency)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err = r.pool.Exec(ctx, query,
		session.ID,
		session.TicketID,
		session.AgentID,
		session.SessionStart,
		session.SessionEnd,
		entries,
		breaks,
		session.Status,
		session.Efficiency,
	)
	return err
}

func (r *timeSessionRepository) Update(ctx context.Context, session *domain.TimeSession) error {
	entries, breaks, err := marshalIntervals(session)
	if err != nil {
		return err
	}
	const query = `
        UPDATE time_sessions SET session_end=$1, entries=$2, breaks=$3, status=$4, efficiency=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		session.SessionEnd,
		entries,
		breaks,
		session.Status,
		session.Efficiency,
		session.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *timeSessionRepository) GetByID(ctx context.Context, id string) (*domain.TimeSession, error) {
	const query = `
        SELECT id, ticket_id, agent_id, session_start, session_end, entries, breaks, status, efficiency
        FROM time_sessions WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTimeSession(row)
}

func (r *timeSessionRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TimeSession, error) {
	const query = `
        SELECT id, ticket_id, agent_id, session_start, session_end, entries, breaks, status, efficiency
        FROM time_sessions WHERE ticket_id=$1 ORDER BY session_start DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TimeSession
	for rows.Next() {
		session, err := scanTimeSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *session)
	}
	return result, rows.Err()
}

func (r *timeSessionRepository) OpenByAgent(ctx context.Context, agentID string) (*domain.TimeSession, error) {
	const query = `
        SELECT id, ticket_id, agent_id, session_start, session_end, entries, breaks, status, efficiency
        FROM time_sessions WHERE agent_id=$1 AND status <> $2
        ORDER BY session_start DESC LIMIT 1`
	row := r.pool.QueryRow(ctx, query, agentID, domain.SessionCompleted)
	session, err := scanTimeSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTimeSession(row rowScanner) (*domain.TimeSession, error) {
	var session domain.TimeSession
	var entries, breaks []byte
	if err := row.Scan(
		&session.ID,
		&session.TicketID,
		&session.AgentID,
		&session.SessionStart,
		&session.SessionEnd,
		&entries,
		&breaks,
		&session.Status,
		&session.Efficiency,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(entries, &session.Entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	if err := json.Unmarshal(breaks, &session.Breaks); err != nil {
		return nil, fmt.Errorf("decode breaks: %w", err)
	}
	return &session, nil
}

func marshalIntervals(session *domain.TimeSession) ([]byte, []byte, error) {
	entriesSrc := session.Entries
	if entriesSrc == nil {
		entriesSrc = []domain.TimeEntry{}
	}
	entries, err := json.Marshal(entriesSrc)
	if err != nil {
		return nil, nil, err
	}
	breaksSrc := session.Breaks
	if breaksSrc == nil {
		breaksSrc = []domain.Break{}
	}
	breaks, err := json.Marshal(breaksSrc)
	if err != nil {
		return nil, nil, err
	}
	return entries, breaks, nil
}
