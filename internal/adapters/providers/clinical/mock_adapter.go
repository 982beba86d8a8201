package clinical

import (
	"context"
	"strings"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/providers"
)

// MockValidationAdapter provides deterministic verdicts for local development.
// Text containing "inappropriate" is rejected, "review" needs review, and
// everything else passes.
type MockValidationAdapter struct{}

// NewMockValidationAdapter creates a mock validation engine
func NewMockValidationAdapter() providers.ValidationEngine {
	return &MockValidationAdapter{}
}

// Validate returns a verdict keyed off the input text
func (m *MockValidationAdapter) Validate(ctx context.Context, text string, vctx providers.ValidationContext) (*providers.ValidationVerdict, error) {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "inappropriate"):
		return &providers.ValidationVerdict{
			ValidationStatus: providers.VerdictInappropriate,
			ComplianceScore:  0.2,
			Feedback:         "Clinical indication does not support the requested study.",
		}, nil
	case strings.Contains(lower, "review"):
		return &providers.ValidationVerdict{
			ValidationStatus: providers.VerdictNeedsReview,
			ComplianceScore:  0.5,
			Feedback:         "Additional clinical detail is needed to confirm appropriateness.",
		}, nil
	default:
		return &providers.ValidationVerdict{
			ValidationStatus:    providers.VerdictAppropriate,
			ComplianceScore:     0.95,
			Feedback:            "Study is appropriate for the documented indication.",
			SuggestedCPTCodes:   []string{"71045"},
			SuggestedICD10Codes: []string{"R07.9"},
		}, nil
	}
}

// MockParserAdapter returns an empty extraction for local development
type MockParserAdapter struct{}

// NewMockParserAdapter creates a mock EMR parser
func NewMockParserAdapter() providers.EMRParser {
	return &MockParserAdapter{}
}

// Parse returns no extracted fields so stored data is never touched
func (m *MockParserAdapter) Parse(ctx context.Context, text string) (*providers.ParsedEMRText, error) {
	return &providers.ParsedEMRText{
		PatientInfo:   &entities.PatientUpdate{},
		InsuranceInfo: &entities.InsuranceUpdate{},
	}, nil
}
