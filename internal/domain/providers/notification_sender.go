package providers

import (
	"context"
)

// NotificationSender delivers a message to a single recipient. Senders are
// fire-and-forget from the caller's perspective: a failed send is logged and
// recorded, never propagated into a workflow transaction.
type NotificationSender interface {
	Send(ctx context.Context, email, subject, body string) error
}
