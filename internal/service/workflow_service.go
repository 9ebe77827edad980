package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-workbench/internal/domain"
	"github.com/spec-kit/support-workbench/internal/events"
	"github.com/spec-kit/support-workbench/internal/repository"
	"github.com/spec-kit/support-workbench/internal/verification"
	"github.com/spec-kit/support-workbench/internal/workflow"
	apperrors "github.com/spec-kit/support-workbench/pkg/util"
)

// WorkflowService coordinates the verification-gated ticket workflow. The
// gate is authoritative here: blocked actions are rejected server-side, the
// client's rendering of the gate is advisory only.
type WorkflowService struct {
	workflows  repository.WorkflowRepository
	history    repository.WorkflowHistoryRepository
	dispatcher events.Dispatcher
}

// WorkflowDependencies bundles repositories for the workflow service.
type WorkflowDependencies struct {
	WorkflowRepo repository.WorkflowRepository
	HistoryRepo  repository.WorkflowHistoryRepository
	Dispatcher   events.Dispatcher
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	return &WorkflowService{
		workflows:  deps.WorkflowRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
	}
}

// StepInput seeds one resolution step at workflow creation.
type StepInput struct {
	Title    string
	Required bool
}

// VerificationAttempt is one verification action on a checklist field.
type VerificationAttempt struct {
	Value     string
	Method    string
	Confirmed bool
}

// StepUpdate mutates one resolution step.
type StepUpdate struct {
	StepID string
	Status domain.StepStatus
	Notes  string
}

// CloseInput finalizes a workflow.
type CloseInput struct {
	FinalStatus      string
	CustomerNotified bool
}

// WorkflowView is the read model handed to the API: state plus the derived
// gate evaluation and tab availability.
type WorkflowView struct {
	Workflow *domain.Workflow
	Gate     verification.Evaluation
	Tabs     map[domain.WorkflowPhase]bool
}

// CreateWorkflow opens a workflow for a ticket with the checklist pending.
func (s *WorkflowService) CreateWorkflow(ctx context.Context, agent *domain.Agent, ticketID string, steps []StepInput) (*WorkflowView, error) {
	if strings.TrimSpace(ticketID) == "" {
		return nil, apperrors.NewValidationError("ticket_id required", nil)
	}
	if existing, err := s.workflows.GetByTicket(ctx, ticketID); err == nil && existing != nil {
		return nil, apperrors.NewConflict("workflow already exists for ticket", map[string]any{"workflow_id": existing.ID})
	}

	w := &domain.Workflow{
		TicketID:           ticketID,
		AgentID:            agent.ID,
		CurrentPhase:       domain.PhaseVerification,
		CompletedPhases:    []domain.WorkflowPhase{},
		VerificationFields: domain.NewVerificationChecklist(),
		ResolutionSteps:    make([]domain.ResolutionStep, 0, len(steps)),
	}
	for _, step := range steps {
		w.ResolutionSteps = append(w.ResolutionSteps, domain.ResolutionStep{
			ID:       uuid.NewString(),
			Title:    strings.TrimSpace(step.Title),
			Required: step.Required,
			Status:   domain.StepPending,
		})
	}
	if err := s.workflows.Create(ctx, w); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:       events.EventWorkflowCreated,
		WorkflowID: w.ID,
		TicketID:   w.TicketID,
		AgentID:    agent.ID,
	})
	return s.view(w), nil
}

// GetWorkflow loads a workflow the agent may access.
func (s *WorkflowService) GetWorkflow(ctx context.Context, agent *domain.Agent, workflowID string) (*WorkflowView, error) {
	w, err := s.load(ctx, agent, workflowID)
	if err != nil {
		return nil, err
	}
	return s.view(w), nil
}

// AttemptVerification records one verification action on a checklist field.
// A confirmed attempt marks the field verified; a failed attempt counts
// against the field's attempt budget, and an exhausted field rejects further
// attempts until explicitly reset.
func (s *WorkflowService) AttemptVerification(ctx context.Context, agent *domain.Agent, workflowID string, fieldID domain.VerificationFieldID, attempt VerificationAttempt) (*WorkflowView, error) {
	w, err := s.load(ctx, agent, workflowID)
	if err != nil {
		return nil, err
	}
	if w.CurrentPhase == domain.PhaseClosure && w.Completion != nil {
		return nil, apperrors.NewConflict("workflow is closed", nil)
	}

	idx := -1
	for i := range w.VerificationFields {
		if w.VerificationFields[i].ID == fieldID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.NewNotFound("verification field", map[string]any{"field": string(fieldID)})
	}

	field := &w.VerificationFields[idx]
	if field.Status == domain.VerificationVerified {
		return s.view(w), nil
	}
	if field.Status == domain.VerificationFailed && field.Attempts >= field.MaxAttempts {
		return nil, apperrors.NewConflict("verification attempts exhausted; reset the field to retry", map[string]any{
			"field":        string(fieldID),
			"attempts":     field.Attempts,
			"max_attempts": field.MaxAttempts,
		})
	}

	wasBlocked := s.blocked(w)
	oldStatus := field.Status

	field.Attempts++
	field.Value = strings.TrimSpace(attempt.Value)
	field.Method = strings.TrimSpace(attempt.Method)
	if attempt.Confirmed {
		now := time.Now()
		field.Status = domain.VerificationVerified
		field.VerifiedAt = &now
	} else if field.Attempts >= field.MaxAttempts {
		field.Status = domain.VerificationFailed
	} else {
		field.Status = domain.VerificationInProgress
	}

	s.recordHistory(ctx, w, agent.ID, domain.ChangeTypeVerification,
		map[string]any{"field": string(fieldID), "status": oldStatus},
		map[string]any{"field": string(fieldID), "status": field.Status, "attempts": field.Attempts, "method": field.Method},
	)

	eval := verification.Evaluate(domain.StatusOf(w.VerificationFields))
	s.publish(ctx, events.Event{
		Type:       events.EventVerificationUpdated,
		WorkflowID: w.ID,
		TicketID:   w.TicketID,
		AgentID:    agent.ID,
		Payload: events.VerificationUpdatedPayload{
			FieldID:  fieldID,
			Status:   field.Status,
			Attempts: field.Attempts,
			Blocked:  eval.Blocked,
		},
	})

	// the gate flipping from blocked to unblocked advances the workflow
	if wasBlocked && !s.blocked(w) && w.CurrentPhase == domain.PhaseVerification {
		s.advance(ctx, w, agent.ID, domain.PhaseResolution)
	}

	if err := s.workflows.Update(ctx, w); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.view(w), nil
}

// ResetVerificationField clears an exhausted field back to pending.
func (s *WorkflowService) ResetVerificationField(ctx context.Context, agent *domain.Agent, workflowID string, fieldID domain.VerificationFieldID) (*WorkflowView, error) {
	w, err := s.load(ctx, agent, workflowID)
	if err != nil {
		return nil, err
	}
	for i := range w.VerificationFields {
		if w.VerificationFields[i].ID != fieldID {
			continue
		}
		old := w.VerificationFields[i].Status
		w.VerificationFields[i].Status = domain.VerificationPending
		w.VerificationFields[i].Attempts = 0
		w.VerificationFields[i].Value = ""
		w.VerificationFields[i].VerifiedAt = nil

		s.recordHistory(ctx, w, agent.ID, domain.ChangeTypeVerification,
			map[string]any{"field": string(fieldID), "status": old},
			map[string]any{"field": string(fieldID), "status": domain.VerificationPending, "reset": true},
		)
		if err := s.workflows.Update(ctx, w); err != nil {
			return nil, apperrors.MapError(err)
		}
		return s.view(w), nil
	}
	return nil, apperrors.NewNotFound("verification field", map[string]any{"field": string(fieldID)})
}

// Override bypasses the gate for the remainder of the workflow. It does not
// verify any field; it only unsets the blocked flag, and the bypass is
// recorded in the audit trail.
func (s *WorkflowService) Override(ctx context.Context, agent *domain.Agent, workflowID, reason string) (*WorkflowView, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("override reason required", nil)
	}
	w, err := s.load(ctx, agent, workflowID)
	if err != nil {
		return nil, err
	}
	if w.Overridden {
		return s.view(w), nil
	}

	eval := verification.Evaluate(domain.StatusOf(w.VerificationFields))
	wasBlocked := s.blocked(w)
	w.Overridden = true
	w.OverrideReason = reason

	s.recordHistory(ctx, w, agent.ID, domain.ChangeTypeOverride,
		map[string]any{"blocked": wasBlocked},
		map[string]any{"reason": reason, "missing_fields": eval.MissingFieldNames()},
	)
	s.publish(ctx, events.Event{
		Type:       events.EventVerificationOverride,
		WorkflowID: w.ID,
		TicketID:   w.TicketID,
		AgentID:    agent.ID,
		Payload: events.VerificationOverridePayload{
			Reason:        reason,
			MissingFields: eval.MissingFieldNames(),
		},
	})

	if wasBlocked && w.CurrentPhase == domain.PhaseVerification {
		s.advance(ctx, w, agent.ID, domain.PhaseResolution)
	}
	if err := s.workflows.Update(ctx, w); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.view(w), nil
}

// SelectPhase is the explicit user navigation between phases, validated
// against the transition graph and the gate.
func (s *WorkflowService) SelectPhase(ctx context.Context, agent *domain.Agent, workflowID string, target domain.WorkflowPhase) (*WorkflowView, error) {
	w, err := s.load(ctx, agent, workflowID)
	if err != nil {
		return nil, err
	}
	if target == w.CurrentPhase {
		return s.view(w), nil
	}
	if !workflow.CanTransition(w.CurrentPhase, target) {
		return nil, apperrors.NewConflict("invalid phase transition", map[string]any{
			"from": string(w.CurrentPhase),
			"to":   string(target),
		})
	}
	if target != domain.PhaseVerification && s.blocked(w) {
		eval := verification.Evaluate(domain.StatusOf(w.VerificationFields))
		return nil, apperrors.NewActionBlocked(string(verification.ActionAccess), eval.MissingFieldNames())
	}
	if target == domain.PhaseClosure && !s.closureReady(w) {
		return nil, apperrors.NewConflict("closure prerequisites not met", map[string]any{
			"required_steps_completed": w.RequiredStepsCompleted(),
			"documentation_saved":      w.Documentation != nil,
		})
	}

	s.advance(ctx, w, agent.ID, target)
	if err := s.workflows.Update(ctx, w); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.view(w), nil
}

// UpdateResolutionStep changes a step's status; gated as a "modify" action.
func (s *WorkflowService) UpdateResolutionStep(ctx context.Context, agent *domain.Agent, workflowID string, update StepUpdate) (*WorkflowView, error) {
	w, err := s.load(ctx, agent, workflowID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAction(w, verification.ActionModify); err != nil {
		return nil, err
	}

	for i := range w.ResolutionSteps {
		if w.ResolutionSteps[i].ID != update.StepID {
			continue
		}
		old := w.ResolutionSteps[i].Status
		w.ResolutionSteps[i].Status = update.Status
		w.ResolutionSteps[i].Notes = update.Notes
		if update.Status == domain.StepCompleted {
			now := time.Now()
			w.ResolutionSteps[i].CompletedAt = &now
		} else {
			w.ResolutionSteps[i].CompletedAt = nil
		}
		s.recordHistory(ctx, w, agent.ID, domain.ChangeTypeStepUpdate,
			map[string]any{"step": update.StepID, "status": old},
			map[string]any{"step": update.StepID, "status": update.Status},
		)
		if err := s.workflows.Update(ctx, w); err != nil {
			return nil, apperrors.MapError(err)
		}
		return s.view(w), nil
	}
	return nil, apperrors.NewNotFound("resolution step", map[string]any{"step": update.StepID})
}

// SaveDocumentation validates and stores the resolution narrative. When the
// required resolution steps are complete the workflow moves on to closure.
func (s *WorkflowService) SaveDocumentation(ctx context.Context, agent *domain.Agent, workflowID string, doc domain.Documentation) (*WorkflowView, error) {
	w, err := s.load(ctx, agent, workflowID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAction(w, verification.ActionModify); err != nil {
		return nil, err
	}
	if problems := workflow.ValidateDocumentation(doc); len(problems) > 0 {
		return nil, apperrors.NewValidationError("documentation incomplete", map[string]any{"problems": problems})
	}

	doc.SavedAt = time.Now()
	w.Documentation = &doc
	w.MarkPhaseCompleted(domain.PhaseDocumentation)

	if w.RequiredStepsCompleted() &&
		(w.CurrentPhase == domain.PhaseResolution || w.CurrentPhase == domain.PhaseDocumentation) {
		w.MarkPhaseCompleted(domain.PhaseResolution)
		s.advance(ctx, w, agent.ID, domain.PhaseClosure)
	}

	if err := s.workflows.Update(ctx, w); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.view(w), nil
}

// Escalate records an explicit escalation-form submission and enters the
// escalation phase. Returning to resolution requires explicit reselection.
func (s *WorkflowService) Escalate(ctx context.Context, agent *domain.Agent, workflowID string, request domain.EscalationRequest) (*WorkflowView, error) {
	w, err := s.load(ctx, agent, workflowID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAction(w, verification.ActionEscalate); err != nil {
		return nil, err
	}
	if strings.TrimSpace(request.Reason) == "" || strings.TrimSpace(request.Target) == "" {
		return nil, apperrors.NewValidationError("escalation target and reason required", nil)
	}
	if !workflow.CanTransition(w.CurrentPhase, domain.PhaseEscalation) {
		return nil, apperrors.NewConflict("cannot escalate from current phase", map[string]any{"phase": string(w.CurrentPhase)})
	}

	request.SubmittedAt = time.Now()
	w.Escalation = &request
	s.recordHistory(ctx, w, agent.ID, domain.ChangeTypeEscalation,
		map[string]any{"phase": string(w.CurrentPhase)},
		map[string]any{"target": request.Target, "priority": request.Priority},
	)
	s.advance(ctx, w, agent.ID, domain.PhaseEscalation)
	s.publish(ctx, events.Event{
		Type:       events.EventEscalationRaised,
		WorkflowID: w.ID,
		TicketID:   w.TicketID,
		AgentID:    agent.ID,
		Payload: events.EscalationRaisedPayload{
			Target:   request.Target,
			Reason:   request.Reason,
			Priority: request.Priority,
		},
	})
	if err := s.workflows.Update(ctx, w); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.view(w), nil
}

// Close finalizes the workflow; the phase must already be closure.
func (s *WorkflowService) Close(ctx context.Context, agent *domain.Agent, workflowID string, input CloseInput) (*WorkflowView, error) {
	w, err := s.load(ctx, agent, workflowID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAction(w, verification.ActionClose); err != nil {
		return nil, err
	}
	if w.CurrentPhase != domain.PhaseClosure {
		return nil, apperrors.NewConflict("workflow has not reached closure", map[string]any{"phase": string(w.CurrentPhase)})
	}
	if w.Completion != nil {
		return nil, apperrors.NewConflict("workflow already closed", nil)
	}

	finalStatus := strings.TrimSpace(input.FinalStatus)
	if finalStatus == "" {
		finalStatus = "RESOLVED"
	}
	now := time.Now()
	w.Completion = &domain.CompletionData{
		FinalStatus:      finalStatus,
		CustomerNotified: input.CustomerNotified,
		ClosedAt:         now,
	}
	w.MarkPhaseCompleted(domain.PhaseClosure)

	s.recordHistory(ctx, w, agent.ID, domain.ChangeTypeClosure,
		map[string]any{},
		map[string]any{"final_status": finalStatus, "customer_notified": input.CustomerNotified},
	)
	s.publish(ctx, events.Event{
		Type:       events.EventWorkflowClosed,
		WorkflowID: w.ID,
		TicketID:   w.TicketID,
		AgentID:    agent.ID,
		Payload: events.WorkflowClosedPayload{
			FinalStatus:      finalStatus,
			CustomerNotified: input.CustomerNotified,
		},
	})
	if err := s.workflows.Update(ctx, w); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.view(w), nil
}

// History lists audit entries for a workflow.
func (s *WorkflowService) History(ctx context.Context, agent *domain.Agent, workflowID string, limit, offset int) ([]domain.WorkflowHistory, error) {
	if s.history == nil {
		return []domain.WorkflowHistory{}, nil
	}
	if _, err := s.load(ctx, agent, workflowID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByWorkflow(ctx, workflowID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *WorkflowService) load(ctx context.Context, agent *domain.Agent, workflowID string) (*domain.Workflow, error) {
	w, err := s.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !agentCanAccess(agent, w) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return w, nil
}

func agentCanAccess(agent *domain.Agent, w *domain.Workflow) bool {
	if agent == nil {
		return false
	}
	if agent.Role == domain.AgentRoleAdmin || agent.Role == domain.AgentRoleTeamLead {
		return true
	}
	return w.AgentID == agent.ID
}

// blocked folds the override flag into the gate decision.
func (s *WorkflowService) blocked(w *domain.Workflow) bool {
	if w.Overridden {
		return false
	}
	return verification.Evaluate(domain.StatusOf(w.VerificationFields)).Blocked
}

func (s *WorkflowService) requireAction(w *domain.Workflow, action verification.ActionID) error {
	if !s.blocked(w) {
		return nil
	}
	eval := verification.Evaluate(domain.StatusOf(w.VerificationFields))
	if eval.Allows(action) {
		return nil
	}
	return apperrors.NewActionBlocked(string(action), eval.MissingFieldNames())
}

func (s *WorkflowService) closureReady(w *domain.Workflow) bool {
	return w.RequiredStepsCompleted() && w.Documentation != nil
}

// advance moves the workflow to the target phase, marks the old phase
// completed on forward movement, and relays a ticket patch.
func (s *WorkflowService) advance(ctx context.Context, w *domain.Workflow, agentID string, target domain.WorkflowPhase) {
	old := w.CurrentPhase
	if old != target && old != domain.PhaseEscalation {
		w.MarkPhaseCompleted(old)
	}
	w.CurrentPhase = target

	s.recordHistory(ctx, w, agentID, domain.ChangeTypePhase,
		map[string]any{"phase": string(old)},
		map[string]any{"phase": string(target)},
	)
	s.publish(ctx, events.Event{
		Type:       events.EventPhaseChanged,
		WorkflowID: w.ID,
		TicketID:   w.TicketID,
		AgentID:    agentID,
		Payload: events.PhaseChangedPayload{
			OldPhase: old,
			NewPhase: target,
			Ticket:   ticketPatchFor(w, target),
		},
	})
}

func ticketPatchFor(w *domain.Workflow, phase domain.WorkflowPhase) events.TicketPatch {
	patch := events.TicketPatch{UpdatedAt: time.Now()}
	switch phase {
	case domain.PhaseEscalation:
		patch.Status = "ESCALATED"
	case domain.PhaseClosure:
		if w.Completion != nil {
			patch.Status = w.Completion.FinalStatus
			closed := w.Completion.ClosedAt
			patch.ClosedAt = &closed
		} else {
			patch.Status = "PENDING_CLOSURE"
		}
	default:
		patch.Status = "IN_PROGRESS"
	}
	return patch
}

func (s *WorkflowService) view(w *domain.Workflow) *WorkflowView {
	eval := verification.Evaluate(domain.StatusOf(w.VerificationFields))
	if w.Overridden {
		eval.Blocked = false
		eval.BlockedActions = []verification.ActionID{}
	}
	return &WorkflowView{
		Workflow: w,
		Gate:     eval,
		Tabs:     workflow.TabAvailability(w),
	}
}

func (s *WorkflowService) recordHistory(ctx context.Context, w *domain.Workflow, agentID string, changeType domain.WorkflowChangeType, oldValue, newValue map[string]any) {
	if s.history == nil || w.ID == "" {
		return
	}
	entry := &domain.WorkflowHistory{
		WorkflowID: w.ID,
		AgentID:    agentID,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	_ = s.history.Create(ctx, entry)
}

func (s *WorkflowService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
