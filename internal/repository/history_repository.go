package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-workbench/internal/domain"
)

// WorkflowHistoryRepository stores the immutable workflow audit trail.
type WorkflowHistoryRepository interface {
	Create(ctx context.Context, entry *domain.WorkflowHistory) error
	ListByWorkflow(ctx context.Context, workflowID string, limit, offset int) ([]domain.WorkflowHistory, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowHistoryRepository instantiates repository.
func NewWorkflowHistoryRepository(pool *pgxpool.Pool) WorkflowHistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Create(ctx context.Context, entry *domain.WorkflowHistory) error {
	const query = `
        INSERT INTO workflow_history (workflow_id, agent_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.WorkflowID,
		entry.AgentID,
		entry.ChangeType,
		entry.OldValue,
		entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *historyRepository) ListByWorkflow(ctx context.Context, workflowID string, limit, offset int) ([]domain.WorkflowHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, workflow_id, agent_id, change_type, old_value, new_value, created_at
        FROM workflow_history
        WHERE workflow_id=$1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, workflowID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistory(rows)
}

func scanHistory(rows pgx.Rows) ([]domain.WorkflowHistory, error) {
	var result []domain.WorkflowHistory
	for rows.Next() {
		var entry domain.WorkflowHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.WorkflowID,
			&entry.AgentID,
			&entry.ChangeType,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
