package providers

import (
	"context"
)

// ValidationContext carries order context passed to the validation engine
type ValidationContext struct {
	OrderID       int64  `json:"order_id,omitempty"`
	PatientAge    int    `json:"patient_age,omitempty"`
	PatientGender string `json:"patient_gender,omitempty"`
	Modality      string `json:"modality,omitempty"`
	IsOverride    bool   `json:"is_override"`
}

// ValidationVerdict is what the external clinical validation engine returns
type ValidationVerdict struct {
	ValidationStatus    string   `json:"validation_status"`
	ComplianceScore     float64  `json:"compliance_score"`
	Feedback            string   `json:"feedback"`
	SuggestedICD10Codes []string `json:"suggested_icd10_codes"`
	SuggestedCPTCodes   []string `json:"suggested_cpt_codes"`
}

// Verdict statuses returned by the engine
const (
	VerdictAppropriate   = "appropriate"
	VerdictInappropriate = "inappropriate"
	VerdictNeedsReview   = "needs_review"
)

// ValidationEngine is the external clinical validation collaborator. The
// call is awaited synchronously inside the enclosing unit of work; a timeout
// aborts the transaction rather than leaving it open.
type ValidationEngine interface {
	Validate(ctx context.Context, text string, vctx ValidationContext) (*ValidationVerdict, error)
}
