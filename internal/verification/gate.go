package verification

import (
	"github.com/spec-kit/support-workbench/internal/domain"
)

// ActionID identifies a ticket action the gate can block.
type ActionID string

const (
	ActionResolve  ActionID = "resolve"
	ActionEscalate ActionID = "escalate"
	ActionClose    ActionID = "close"
	ActionModify   ActionID = "modify"
	ActionAccess   ActionID = "access"
)

// BlockedActions is the static set applied uniformly while the gate is blocked.
var BlockedActions = []ActionID{
	ActionResolve,
	ActionEscalate,
	ActionClose,
	ActionModify,
	ActionAccess,
}

// RequiredFields lists the checklist fields the gate aggregates over.
var RequiredFields = []domain.VerificationFieldID{
	domain.FieldCustomerName,
	domain.FieldUsername,
	domain.FieldAssetTag,
	domain.FieldDepartment,
	domain.FieldContactInfo,
}

// Rule names a per-action required-field subset. Rules are informational:
// the blocking decision is the aggregate boolean, the subsets are exposed
// read-only so the UI can explain which checks feed which action.
type Rule struct {
	ID     string                       `json:"id"`
	Label  string                       `json:"label"`
	Fields []domain.VerificationFieldID `json:"fields"`
}

// Rules lists the informational per-action subsets.
var Rules = []Rule{
	{
		ID:     "customer_identity",
		Label:  "Customer Identity",
		Fields: []domain.VerificationFieldID{domain.FieldCustomerName, domain.FieldUsername, domain.FieldContactInfo},
	},
	{
		ID:     "asset_verification",
		Label:  "Asset Verification",
		Fields: []domain.VerificationFieldID{domain.FieldAssetTag, domain.FieldDepartment},
	},
}

// Evaluation is the gate output.
type Evaluation struct {
	Blocked        bool                         `json:"blocked"`
	BlockedActions []ActionID                   `json:"blocked_actions"`
	MissingFields  []domain.VerificationFieldID `json:"missing_fields"`
}

// Evaluate derives the gate decision from the aggregate verification status.
// Blocked is true iff any required field is not verified. Pure; no side effects.
func Evaluate(status domain.VerificationStatus) Evaluation {
	var missing []domain.VerificationFieldID
	for _, field := range RequiredFields {
		if !status[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return Evaluation{Blocked: false, BlockedActions: []ActionID{}, MissingFields: []domain.VerificationFieldID{}}
	}
	blocked := make([]ActionID, len(BlockedActions))
	copy(blocked, BlockedActions)
	return Evaluation{Blocked: true, BlockedActions: blocked, MissingFields: missing}
}

// Allows reports whether the evaluation permits the given action.
func (e Evaluation) Allows(action ActionID) bool {
	if !e.Blocked {
		return true
	}
	for _, blocked := range e.BlockedActions {
		if blocked == action {
			return false
		}
	}
	return true
}

// MissingFieldNames returns the missing field ids as plain strings.
func (e Evaluation) MissingFieldNames() []string {
	names := make([]string, 0, len(e.MissingFields))
	for _, f := range e.MissingFields {
		names = append(names, string(f))
	}
	return names
}
