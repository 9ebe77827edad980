package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-workbench/internal/domain"
)

// WorkflowRepository encapsulates workflow persistence. Checklist data is
// stored as JSONB alongside the scalar workflow columns.
type WorkflowRepository interface {
	Create(ctx context.Context, workflow *domain.Workflow) error
	Update(ctx context.Context, workflow *domain.Workflow) error
	GetByID(ctx context.Context, id string) (*domain.Workflow, error)
	GetByTicket(ctx context.Context, ticketID string) (*domain.Workflow, error)
}

type workflowRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository instantiates repository.
func NewWorkflowRepository(pool *pgxpool.Pool) WorkflowRepository {
	return &workflowRepository{pool: pool}
}

func (r *workflowRepository) Create(ctx context.Context, workflow *domain.Workflow) error {
	cols, err := marshalWorkflow(workflow)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO workflows (ticket_id, agent_id, current_phase, completed_phases, verification_fields,
            overridden, override_reason, resolution_steps, documentation, escalation, completion)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		workflow.TicketID,
		workflow.AgentID,
		workflow.CurrentPhase,
		cols.completedPhases,
		cols.verificationFields,
		workflow.Overridden,
		workflow.OverrideReason,
		cols.resolutionSteps,
		cols.documentation,
		cols.escalation,
		cols.completion,
	).Scan(&workflow.ID, &workflow.CreatedAt, &workflow.UpdatedAt)
}

func (r *workflowRepository) Update(ctx context.Context, workflow *domain.Workflow) error {
	cols, err := marshalWorkflow(workflow)
	if err != nil {
		return err
	}
	const query = `
        UPDATE workflows SET current_phase=$1, completed_phases=$2, verification_fields=$3,
            overridden=$4, override_reason=$5, resolution_steps=$6, documentation=$7,
            escalation=$8, completion=$9, updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		workflow.CurrentPhase,
		cols.completedPhases,
		cols.verificationFields,
		workflow.Overridden,
		workflow.OverrideReason,
		cols.resolutionSteps,
		cols.documentation,
		cols.escalation,
		cols.completion,
		workflow.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *workflowRepository) GetByID(ctx context.Context, id string) (*domain.Workflow, error) {
	const query = `
        SELECT id, ticket_id, agent_id, current_phase, completed_phases, verification_fields,
               overridden, override_reason, resolution_steps, documentation, escalation, completion,
               created_at, updated_at
        FROM workflows WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *workflowRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Workflow, error) {
	const query = `
        SELECT id, ticket_id, agent_id, current_phase, completed_phases, verification_fields,
               overridden, override_reason, resolution_steps, documentation, escalation, completion,
               created_at, updated_at
        FROM workflows WHERE ticket_id=$1`
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *workflowRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Workflow, error) {
	var workflow domain.Workflow
	var completedPhases, verificationFields, resolutionSteps []byte
	var documentation, escalation, completion []byte

	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&workflow.ID,
		&workflow.TicketID,
		&workflow.AgentID,
		&workflow.CurrentPhase,
		&completedPhases,
		&verificationFields,
		&workflow.Overridden,
		&workflow.OverrideReason,
		&resolutionSteps,
		&documentation,
		&escalation,
		&completion,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(completedPhases, &workflow.CompletedPhases); err != nil {
		return nil, fmt.Errorf("decode completed_phases: %w", err)
	}
	if err := json.Unmarshal(verificationFields, &workflow.VerificationFields); err != nil {
		return nil, fmt.Errorf("decode verification_fields: %w", err)
	}
	if err := json.Unmarshal(resolutionSteps, &workflow.ResolutionSteps); err != nil {
		return nil, fmt.Errorf("decode resolution_steps: %w", err)
	}
	if len(documentation) > 0 {
		if err := json.Unmarshal(documentation, &workflow.Documentation); err != nil {
			return nil, fmt.Errorf("decode documentation: %w", err)
		}
	}
	if len(escalation) > 0 {
		if err := json.Unmarshal(escalation, &workflow.Escalation); err != nil {
			return nil, fmt.Errorf("decode escalation: %w", err)
		}
	}
	if len(completion) > 0 {
		if err := json.Unmarshal(completion, &workflow.Completion); err != nil {
			return nil, fmt.Errorf("decode completion: %w", err)
		}
	}
	return &workflow, nil
}

type workflowColumns struct {
	completedPhases    []byte
	verificationFields []byte
	resolutionSteps    []byte
	documentation      []byte
	escalation         []byte
	completion         []byte
}

func marshalWorkflow(workflow *domain.Workflow) (workflowColumns, error) {
	var cols workflowColumns
	var err error

	phases := workflow.CompletedPhases
	if phases == nil {
		phases = []domain.WorkflowPhase{}
	}
	if cols.completedPhases, err = json.Marshal(phases); err != nil {
		return cols, err
	}
	fields := workflow.VerificationFields
	if fields == nil {
		fields = []domain.VerificationField{}
	}
	if cols.verificationFields, err = json.Marshal(fields); err != nil {
		return cols, err
	}
	steps := workflow.ResolutionSteps
	if steps == nil {
		steps = []domain.ResolutionStep{}
	}
	if cols.resolutionSteps, err = json.Marshal(steps); err != nil {
		return cols, err
	}
	if workflow.Documentation != nil {
		if cols.documentation, err = json.Marshal(workflow.Documentation); err != nil {
			return cols, err
		}
	}
	if workflow.Escalation != nil {
		if cols.escalation, err = json.Marshal(workflow.Escalation); err != nil {
			return cols, err
		}
	}
	if workflow.Completion != nil {
		if cols.completion, err = json.Marshal(workflow.Completion); err != nil {
			return cols, err
		}
	}
	return cols, nil
}
