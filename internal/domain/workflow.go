package domain

import "time"

// WorkflowPhase enumerates the ticket workflow phases.
type WorkflowPhase string

const (
	PhaseVerification  WorkflowPhase = "verification"
	PhaseResolution    WorkflowPhase = "resolution"
	PhaseDocumentation WorkflowPhase = "documentation"
	PhaseEscalation    WorkflowPhase = "escalation"
	PhaseClosure       WorkflowPhase = "closure"
)

// WorkflowPhases lists phases in canonical tab order.
var WorkflowPhases = []WorkflowPhase{
	PhaseVerification,
	PhaseResolution,
	PhaseDocumentation,
	PhaseEscalation,
	PhaseClosure,
}

// StepStatus enumerates resolution step states.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepSkipped    StepStatus = "skipped"
)

// ResolutionStep is one item of the resolution checklist.
type ResolutionStep struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Required    bool       `json:"required"`
	Status      StepStatus `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Documentation captures the resolution narrative saved before closure.
type Documentation struct {
	ProblemSummary  string    `json:"problem_summary"`
	RootCause       string    `json:"root_cause"`
	SolutionApplied string    `json:"solution_applied"`
	Preventive      string    `json:"preventive,omitempty"`
	SavedAt         time.Time `json:"saved_at"`
}

// EscalationRequest records an explicit escalation-form submission.
type EscalationRequest struct {
	Target      string    `json:"target"`
	Reason      string    `json:"reason"`
	Priority    string    `json:"priority"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// CompletionData records closure outcome.
type CompletionData struct {
	FinalStatus      string    `json:"final_status"`
	CustomerNotified bool      `json:"customer_notified"`
	ClosedAt         time.Time `json:"closed_at"`
}

// Workflow is the aggregate workflow state for one ticket.
type Workflow struct {
	ID                 string
	TicketID           string
	AgentID            string
	CurrentPhase       WorkflowPhase
	CompletedPhases    []WorkflowPhase
	VerificationFields []VerificationField
	Overridden         bool
	OverrideReason     string
	ResolutionSteps    []ResolutionStep
	Documentation      *Documentation
	Escalation         *EscalationRequest
	Completion         *CompletionData
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PhaseCompleted reports whether the given phase is in the completed set.
func (w *Workflow) PhaseCompleted(phase WorkflowPhase) bool {
	for _, p := range w.CompletedPhases {
		if p == phase {
			return true
		}
	}
	return false
}

// MarkPhaseCompleted records a completed phase exactly once.
func (w *Workflow) MarkPhaseCompleted(phase WorkflowPhase) {
	if !w.PhaseCompleted(phase) {
		w.CompletedPhases = append(w.CompletedPhases, phase)
	}
}

// RequiredStepsCompleted reports whether every required resolution step is done.
func (w *Workflow) RequiredStepsCompleted() bool {
	for _, step := range w.ResolutionSteps {
		if step.Required && step.Status != StepCompleted {
			return false
		}
	}
	return true
}

// WorkflowChangeType captures what changed in a history entry.
type WorkflowChangeType string

const (
	ChangeTypePhase        WorkflowChangeType = "PHASE_CHANGE"
	ChangeTypeVerification WorkflowChangeType = "VERIFICATION_ATTEMPT"
	ChangeTypeOverride     WorkflowChangeType = "VERIFICATION_OVERRIDE"
	ChangeTypeEscalation   WorkflowChangeType = "ESCALATION"
	ChangeTypeClosure      WorkflowChangeType = "CLOSURE"
	ChangeTypeStepUpdate   WorkflowChangeType = "STEP_UPDATE"
)

// WorkflowHistory is an immutable audit trail entry.
type WorkflowHistory struct {
	ID         string
	WorkflowID string
	AgentID    string
	ChangeType WorkflowChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}
