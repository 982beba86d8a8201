package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/config"
)

// EmailAPISender sends email via an HTTP mail delivery API
type EmailAPISender struct {
	apiKey     string
	fromEmail  string
	httpClient *http.Client
	baseURL    string
}

// NewEmailAPISender creates a new email sender
func NewEmailAPISender(cfg *config.NotificationConfig) (*EmailAPISender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("NOTIFICATION_API_KEY must be set")
	}

	return &EmailAPISender{
		apiKey:    cfg.APIKey,
		fromEmail: cfg.FromEmail,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: cfg.APIBaseURL,
	}, nil
}

// emailMessage is the mail API request payload
type emailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// emailResponse is the mail API response payload
type emailResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Send sends a plain-text email to a single recipient
func (s *EmailAPISender) Send(ctx context.Context, email, subject, body string) error {
	message := emailMessage{
		From:    s.fromEmail,
		To:      email,
		Subject: subject,
		Text:    body,
	}

	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/messages", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mail API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var mailResp emailResponse
	if err := json.Unmarshal(respBody, &mailResp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if mailResp.ID == "" {
		return fmt.Errorf("no message ID in response")
	}

	return nil
}
