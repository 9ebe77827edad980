package workflow

import (
	"github.com/spec-kit/support-workbench/internal/domain"
)

// allowedTransitions defines the phase graph. Closure is terminal: the
// common path runs verification → resolution → documentation → closure,
// and escalation branches off resolution without ending the workflow.
var allowedTransitions = map[domain.WorkflowPhase][]domain.WorkflowPhase{
	domain.PhaseVerification:  {domain.PhaseResolution},
	domain.PhaseResolution:    {domain.PhaseDocumentation, domain.PhaseEscalation, domain.PhaseClosure, domain.PhaseVerification},
	domain.PhaseDocumentation: {domain.PhaseResolution, domain.PhaseEscalation, domain.PhaseClosure, domain.PhaseVerification},
	domain.PhaseEscalation:    {domain.PhaseResolution, domain.PhaseVerification},
	domain.PhaseClosure:       {},
}

// CanTransition reports whether the phase graph permits current → next.
func CanTransition(current, next domain.WorkflowPhase) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the phase admits no further transitions.
func Terminal(phase domain.WorkflowPhase) bool {
	return len(allowedTransitions[phase]) == 0
}

// TabAvailability maps each phase tab to whether it is selectable given the
// workflow's progress. Verification is always selectable; closure only once
// the workflow has reached it; everything else unlocks when its prerequisite
// phase completes or when it is the current phase.
func TabAvailability(w *domain.Workflow) map[domain.WorkflowPhase]bool {
	tabs := make(map[domain.WorkflowPhase]bool, len(domain.WorkflowPhases))
	for _, phase := range domain.WorkflowPhases {
		tabs[phase] = selectable(w, phase)
	}
	return tabs
}

func selectable(w *domain.Workflow, phase domain.WorkflowPhase) bool {
	if phase == w.CurrentPhase || w.PhaseCompleted(phase) {
		return true
	}
	switch phase {
	case domain.PhaseVerification:
		return true
	case domain.PhaseResolution:
		return w.PhaseCompleted(domain.PhaseVerification)
	case domain.PhaseDocumentation:
		return w.PhaseCompleted(domain.PhaseResolution) || w.CurrentPhase == domain.PhaseResolution
	case domain.PhaseEscalation:
		// escalation is reached only by explicit form submission
		return false
	case domain.PhaseClosure:
		return w.CurrentPhase == domain.PhaseClosure
	}
	return false
}

// ValidateDocumentation collects user-facing validation messages for the
// required narrative fields. An empty slice means the documentation may be saved.
func ValidateDocumentation(doc domain.Documentation) []string {
	var problems []string
	if doc.ProblemSummary == "" {
		problems = append(problems, "problem summary is required")
	}
	if doc.RootCause == "" {
		problems = append(problems, "root cause is required")
	}
	if doc.SolutionApplied == "" {
		problems = append(problems, "solution applied is required")
	}
	return problems
}
