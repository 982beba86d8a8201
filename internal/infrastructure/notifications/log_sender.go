package notifications

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogSender writes notifications to the log instead of delivering them. Used
// when no mail API key is configured.
type LogSender struct{}

// NewLogSender creates a new log-only sender
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the message and reports success
func (s *LogSender) Send(ctx context.Context, email, subject, body string) error {
	log.Info().
		Str("recipient", email).
		Str("subject", subject).
		Msg("notification (log-only delivery)")
	return nil
}
