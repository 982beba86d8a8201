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

// HTTPParserAdapter implements EMRParser against the external text
// extraction API
type HTTPParserAdapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewHTTPParserAdapter creates a new HTTP parser adapter
func NewHTTPParserAdapter(baseURL, apiKey string) providers.EMRParser {
	return &HTTPParserAdapter{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type parseRequest struct {
	Text string `json:"text"`
}

// Parse extracts structured patient and insurance fields from pasted EMR text
func (a *HTTPParserAdapter) Parse(ctx context.Context, text string) (*providers.ParsedEMRText, error) {
	payload, err := json.Marshal(parseRequest{Text: text})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal parse request", err)
	}

	url := fmt.Sprintf("%s/v1/parse", a.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create parse request", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("emr parser unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("emr parser returned status %d", resp.StatusCode), nil)
	}

	parsed := &providers.ParsedEMRText{}
	if err := json.NewDecoder(resp.Body).Decode(parsed); err != nil {
		return nil, apperrors.NewExternalError("failed to decode parsed text", err)
	}

	return parsed, nil
}
