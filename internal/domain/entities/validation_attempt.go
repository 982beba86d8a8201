package entities

import (
	"time"
)

// ValidationOutcome is the recorded result of a validation attempt
type ValidationOutcome string

const (
	ValidationOutcomePassed     ValidationOutcome = "passed"
	ValidationOutcomeOverridden ValidationOutcome = "overridden"
	ValidationOutcomeRejected   ValidationOutcome = "rejected"
	ValidationOutcomeFailed     ValidationOutcome = "failed"
)

// ValidationAttempt records one call to the clinical validation engine for an
// order. Attempt numbers increase monotonically per order, starting at 1.
// Append-only.
type ValidationAttempt struct {
	ID                  string            `json:"id" db:"id"`
	OrderID             int64             `json:"order_id" db:"order_id"`
	AttemptNumber       int               `json:"attempt_number" db:"attempt_number"`
	InputText           string            `json:"input_text" db:"input_text"`
	Outcome             ValidationOutcome `json:"outcome" db:"outcome"`
	SuggestedCPTCodes   []string          `json:"suggested_cpt_codes" db:"suggested_cpt_codes"`
	SuggestedICD10Codes []string          `json:"suggested_icd10_codes" db:"suggested_icd10_codes"`
	ComplianceScore     *float64          `json:"compliance_score" db:"compliance_score"`
	Feedback            *string           `json:"feedback" db:"feedback"`
	CreatedAt           time.Time         `json:"created_at" db:"created_at"`
}
