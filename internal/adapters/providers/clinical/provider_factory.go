package clinical

import (
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/providers"
)

// ProviderConfig configures the clinical collaborators
type ProviderConfig struct {
	ValidationBaseURL string
	ValidationAPIKey  string
	ParserBaseURL     string
	ParserAPIKey      string
}

// NewValidationEngine creates a validation engine, falling back to the mock
// when no real engine is configured
func NewValidationEngine(cfg ProviderConfig) providers.ValidationEngine {
	if cfg.ValidationBaseURL == "" || cfg.ValidationAPIKey == "" {
		// No real engine configured; use mock for dev.
		return NewMockValidationAdapter()
	}
	return NewHTTPValidationAdapter(cfg.ValidationBaseURL, cfg.ValidationAPIKey)
}

// NewEMRParser creates an EMR parser, falling back to the mock when no real
// parser is configured
func NewEMRParser(cfg ProviderConfig) providers.EMRParser {
	if cfg.ParserBaseURL == "" || cfg.ParserAPIKey == "" {
		return NewMockParserAdapter()
	}
	return NewHTTPParserAdapter(cfg.ParserBaseURL, cfg.ParserAPIKey)
}
