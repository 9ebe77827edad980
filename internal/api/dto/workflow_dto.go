package dto

import (
	"github.com/spec-kit/support-workbench/internal/domain"
	"github.com/spec-kit/support-workbench/internal/service"
	"github.com/spec-kit/support-workbench/internal/verification"
)

// CreateWorkflowRequest opens a workflow for a ticket.
type CreateWorkflowRequest struct {
	TicketID string            `json:"ticket_id"`
	Steps    []StepSeedRequest `json:"resolution_steps,omitempty"`
}

// StepSeedRequest seeds one resolution step.
type StepSeedRequest struct {
	Title    string `json:"title"`
	Required bool   `json:"required"`
}

// VerificationAttemptRequest records one verification action.
type VerificationAttemptRequest struct {
	Value     string `json:"value,omitempty"`
	Method    string `json:"method,omitempty"`
	Confirmed bool   `json:"confirmed"`
}

// OverrideRequest bypasses the verification gate.
type OverrideRequest struct {
	Reason string `json:"reason"`
}

// SelectPhaseRequest is explicit tab navigation.
type SelectPhaseRequest struct {
	Phase string `json:"phase"`
}

// StepUpdateRequest mutates one resolution step.
type StepUpdateRequest struct {
	StepID string `json:"step_id"`
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// DocumentationRequest carries the resolution narrative.
type DocumentationRequest struct {
	ProblemSummary  string `json:"problem_summary"`
	RootCause       string `json:"root_cause"`
	SolutionApplied string `json:"solution_applied"`
	Preventive      string `json:"preventive_measures,omitempty"`
}

// EscalationFormRequest is the explicit escalation submission.
type EscalationFormRequest struct {
	Target   string `json:"target"`
	Reason   string `json:"reason"`
	Priority string `json:"priority,omitempty"`
}

// CloseWorkflowRequest finalizes the workflow.
type CloseWorkflowRequest struct {
	FinalStatus      string `json:"final_status,omitempty"`
	CustomerNotified bool   `json:"customer_notified"`
}

// GateResponse is the derived gate state.
type GateResponse struct {
	Blocked        bool     `json:"blocked"`
	BlockedActions []string `json:"blocked_actions"`
	MissingFields  []string `json:"missing_fields"`
}

// WorkflowResponse is the full read model for the workbench.
type WorkflowResponse struct {
	Workflow *domain.Workflow `json:"workflow"`
	Gate     GateResponse     `json:"gate"`
	Tabs     map[string]bool  `json:"tabs"`
}

// NewWorkflowResponse maps a service view onto the wire shape.
func NewWorkflowResponse(view *service.WorkflowView) WorkflowResponse {
	actions := make([]string, 0, len(view.Gate.BlockedActions))
	for _, a := range view.Gate.BlockedActions {
		actions = append(actions, string(a))
	}
	tabs := make(map[string]bool, len(view.Tabs))
	for phase, available := range view.Tabs {
		tabs[string(phase)] = available
	}
	return WorkflowResponse{
		Workflow: view.Workflow,
		Gate: GateResponse{
			Blocked:        view.Gate.Blocked,
			BlockedActions: actions,
			MissingFields:  missingNames(view.Gate),
		},
		Tabs: tabs,
	}
}

func missingNames(eval verification.Evaluation) []string {
	names := eval.MissingFieldNames()
	if names == nil {
		return []string{}
	}
	return names
}
