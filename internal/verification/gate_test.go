package verification

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-workbench/internal/domain"
)

func TestEvaluateAllVerified(t *testing.T) {
	status := domain.VerificationStatus{}
	for _, field := range RequiredFields {
		status[field] = true
	}

	eval := Evaluate(status)
	assert.False(t, eval.Blocked)
	assert.Empty(t, eval.BlockedActions)
	assert.Empty(t, eval.MissingFields)
	for _, action := range BlockedActions {
		assert.True(t, eval.Allows(action))
	}
}

func TestEvaluateMissingAssetTag(t *testing.T) {
	status := domain.VerificationStatus{
		domain.FieldCustomerName: true,
		domain.FieldUsername:     true,
		domain.FieldAssetTag:     false,
		domain.FieldDepartment:   true,
		domain.FieldContactInfo:  true,
	}

	eval := Evaluate(status)
	require.True(t, eval.Blocked)
	assert.Contains(t, eval.BlockedActions, ActionResolve)
	assert.Equal(t, []domain.VerificationFieldID{domain.FieldAssetTag}, eval.MissingFields)
	assert.False(t, eval.Allows(ActionResolve))
	assert.False(t, eval.Allows(ActionClose))
}

func TestEvaluateEmptyStatusBlocksEverything(t *testing.T) {
	eval := Evaluate(domain.VerificationStatus{})
	require.True(t, eval.Blocked)
	assert.Len(t, eval.MissingFields, len(RequiredFields))
	assert.ElementsMatch(t, BlockedActions, eval.BlockedActions)
}

// Blocked must be false exactly when every required field is verified,
// for any combination of field states.
func TestEvaluateRandomizedCombinations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		status := domain.VerificationStatus{}
		allVerified := true
		for _, field := range RequiredFields {
			verified := rng.Intn(2) == 1
			status[field] = verified
			if !verified {
				allVerified = false
			}
		}

		eval := Evaluate(status)
		assert.Equal(t, !allVerified, eval.Blocked)
		if eval.Blocked {
			assert.NotEmpty(t, eval.MissingFields)
			assert.ElementsMatch(t, BlockedActions, eval.BlockedActions)
		} else {
			assert.Empty(t, eval.MissingFields)
		}
	}
}

func TestRulesCoverOnlyChecklistFields(t *testing.T) {
	known := map[domain.VerificationFieldID]bool{}
	for _, field := range RequiredFields {
		known[field] = true
	}
	for _, rule := range Rules {
		for _, field := range rule.Fields {
			assert.True(t, known[field], "rule %s references unknown field %s", rule.ID, field)
		}
	}
}

func TestEvaluateIgnoresUnknownFields(t *testing.T) {
	status := domain.VerificationStatus{}
	for _, field := range RequiredFields {
		status[field] = true
	}
	status["badge_number"] = false

	eval := Evaluate(status)
	assert.False(t, eval.Blocked)
}
