package domain

import "time"

// VerificationFieldID identifies one customer-identity field on the checklist.
type VerificationFieldID string

const (
	FieldCustomerName VerificationFieldID = "customer_name"
	FieldUsername     VerificationFieldID = "username"
	FieldAssetTag     VerificationFieldID = "asset_tag"
	FieldDepartment   VerificationFieldID = "department"
	FieldContactInfo  VerificationFieldID = "contact_info"
)

// VerificationFieldIDs lists the checklist fields in display order.
var VerificationFieldIDs = []VerificationFieldID{
	FieldCustomerName,
	FieldUsername,
	FieldAssetTag,
	FieldDepartment,
	FieldContactInfo,
}

// VerificationState enumerates per-field verification lifecycle states.
type VerificationState string

const (
	VerificationPending    VerificationState = "pending"
	VerificationInProgress VerificationState = "in_progress"
	VerificationVerified   VerificationState = "verified"
	VerificationFailed     VerificationState = "failed"
)

// VerificationField records the verification progress of a single identity field.
// Fields are created pending at workflow start and only re-attempted, never removed.
type VerificationField struct {
	ID          VerificationFieldID `json:"id"`
	Label       string              `json:"label"`
	Required    bool                `json:"required"`
	Status      VerificationState   `json:"status"`
	Value       string              `json:"value,omitempty"`
	Method      string              `json:"verification_method,omitempty"`
	VerifiedAt  *time.Time          `json:"verified_at,omitempty"`
	Attempts    int                 `json:"attempts"`
	MaxAttempts int                 `json:"max_attempts"`
}

// DefaultMaxAttempts bounds failed verification attempts per field.
const DefaultMaxAttempts = 3

// NewVerificationChecklist seeds the five-field checklist in pending state.
func NewVerificationChecklist() []VerificationField {
	labels := map[VerificationFieldID]string{
		FieldCustomerName: "Customer Name",
		FieldUsername:     "Username",
		FieldAssetTag:     "Asset Tag",
		FieldDepartment:   "Department",
		FieldContactInfo:  "Contact Information",
	}
	fields := make([]VerificationField, 0, len(VerificationFieldIDs))
	for _, id := range VerificationFieldIDs {
		fields = append(fields, VerificationField{
			ID:          id,
			Label:       labels[id],
			Required:    true,
			Status:      VerificationPending,
			MaxAttempts: DefaultMaxAttempts,
		})
	}
	return fields
}

// VerificationStatus is the aggregate view the gate evaluates: field id → verified.
type VerificationStatus map[VerificationFieldID]bool

// StatusOf derives the aggregate view from the checklist.
func StatusOf(fields []VerificationField) VerificationStatus {
	status := make(VerificationStatus, len(fields))
	for _, f := range fields {
		status[f.ID] = f.Status == VerificationVerified
	}
	return status
}
