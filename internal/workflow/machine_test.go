package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/support-workbench/internal/domain"
)

func TestCanTransitionCommonPath(t *testing.T) {
	assert.True(t, CanTransition(domain.PhaseVerification, domain.PhaseResolution))
	assert.True(t, CanTransition(domain.PhaseResolution, domain.PhaseDocumentation))
	assert.True(t, CanTransition(domain.PhaseDocumentation, domain.PhaseClosure))
}

func TestClosureIsTerminal(t *testing.T) {
	assert.True(t, Terminal(domain.PhaseClosure))
	for _, phase := range domain.WorkflowPhases {
		assert.False(t, CanTransition(domain.PhaseClosure, phase),
			"closure must not regress to %s", phase)
	}
}

func TestEscalationReturnsOnlyByExplicitSelection(t *testing.T) {
	assert.True(t, CanTransition(domain.PhaseResolution, domain.PhaseEscalation))
	assert.True(t, CanTransition(domain.PhaseEscalation, domain.PhaseResolution))
	assert.False(t, CanTransition(domain.PhaseEscalation, domain.PhaseClosure))
}

func TestVerificationCannotSkipAhead(t *testing.T) {
	assert.False(t, CanTransition(domain.PhaseVerification, domain.PhaseClosure))
	assert.False(t, CanTransition(domain.PhaseVerification, domain.PhaseDocumentation))
	assert.False(t, CanTransition(domain.PhaseVerification, domain.PhaseEscalation))
}

func TestTabAvailabilityInitial(t *testing.T) {
	w := &domain.Workflow{CurrentPhase: domain.PhaseVerification}

	tabs := TabAvailability(w)
	assert.True(t, tabs[domain.PhaseVerification])
	assert.False(t, tabs[domain.PhaseResolution])
	assert.False(t, tabs[domain.PhaseDocumentation])
	assert.False(t, tabs[domain.PhaseEscalation])
	assert.False(t, tabs[domain.PhaseClosure])
}

func TestTabAvailabilityAfterVerification(t *testing.T) {
	w := &domain.Workflow{
		CurrentPhase:    domain.PhaseResolution,
		CompletedPhases: []domain.WorkflowPhase{domain.PhaseVerification},
	}

	tabs := TabAvailability(w)
	assert.True(t, tabs[domain.PhaseVerification], "verification stays selectable")
	assert.True(t, tabs[domain.PhaseResolution])
	assert.True(t, tabs[domain.PhaseDocumentation])
	assert.False(t, tabs[domain.PhaseClosure], "closure locked until reached")
}

func TestTabAvailabilityAtClosure(t *testing.T) {
	w := &domain.Workflow{
		CurrentPhase: domain.PhaseClosure,
		CompletedPhases: []domain.WorkflowPhase{
			domain.PhaseVerification,
			domain.PhaseResolution,
			domain.PhaseDocumentation,
		},
	}

	tabs := TabAvailability(w)
	assert.True(t, tabs[domain.PhaseClosure])
	assert.True(t, tabs[domain.PhaseVerification])
}

func TestValidateDocumentation(t *testing.T) {
	problems := ValidateDocumentation(domain.Documentation{})
	assert.Len(t, problems, 3)

	problems = ValidateDocumentation(domain.Documentation{
		ProblemSummary:  "printer offline",
		RootCause:       "stale spooler job",
		SolutionApplied: "restarted print spooler",
	})
	assert.Empty(t, problems)

	problems = ValidateDocumentation(domain.Documentation{
		ProblemSummary:  "printer offline",
		SolutionApplied: "restarted print spooler",
	})
	assert.Equal(t, []string{"root cause is required"}, problems)
}
