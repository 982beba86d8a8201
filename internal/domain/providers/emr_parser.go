package providers

import (
	"context"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
)

// ParsedEMRText is the structured extraction from pasted EMR/supplemental
// text. Fields are present only when the parser extracted them with
// confidence; an absent field must never overwrite stored data.
type ParsedEMRText struct {
	PatientInfo   *entities.PatientUpdate   `json:"patient_info,omitempty"`
	InsuranceInfo *entities.InsuranceUpdate `json:"insurance_info,omitempty"`
}

// EMRParser is the external free-text parser collaborator
type EMRParser interface {
	Parse(ctx context.Context, text string) (*ParsedEMRText, error)
}
