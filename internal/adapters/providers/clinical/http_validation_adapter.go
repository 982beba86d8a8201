package clinical

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

// HTTPValidationAdapter implements ValidationEngine against the external
// clinical decision support API
type HTTPValidationAdapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewHTTPValidationAdapter creates a new HTTP validation adapter. The client
// timeout bounds how long the enclosing transaction stays open while waiting
// on the engine.
func NewHTTPValidationAdapter(baseURL, apiKey string) providers.ValidationEngine {
	return &HTTPValidationAdapter{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type validationRequest struct {
	Text    string                      `json:"text"`
	Context providers.ValidationContext `json:"context"`
}

// Validate submits order text to the engine and returns its verdict
func (a *HTTPValidationAdapter) Validate(ctx context.Context, text string, vctx providers.ValidationContext) (*providers.ValidationVerdict, error) {
	payload, err := json.Marshal(validationRequest{Text: text, Context: vctx})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal validation request", err)
	}

	url := fmt.Sprintf("%s/v1/validate", a.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create validation request", err)
	}
	a.addHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("validation engine unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("validation engine returned status %d", resp.StatusCode), nil)
	}

	verdict := &providers.ValidationVerdict{}
	if err := json.NewDecoder(resp.Body).Decode(verdict); err != nil {
		return nil, apperrors.NewExternalError("failed to decode validation verdict", err)
	}

	switch verdict.ValidationStatus {
	case providers.VerdictAppropriate, providers.VerdictInappropriate, providers.VerdictNeedsReview:
	default:
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("validation engine returned unknown status %q", verdict.ValidationStatus), nil)
	}

	return verdict, nil
}

func (a *HTTPValidationAdapter) addHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.apiKey))
	req.Header.Set("Content-Type", "application/json")
}
