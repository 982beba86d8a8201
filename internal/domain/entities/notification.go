package entities

import "time"

// NotificationType represents the notification purpose
type NotificationType string

const (
	NotificationInsufficientCredits NotificationType = "insufficient_credits"
	NotificationPurgatoryEntered    NotificationType = "purgatory_entered"
	NotificationPurgatoryResolved   NotificationType = "purgatory_resolved"
	NotificationTierChanged         NotificationType = "tier_changed"
)

// NotificationStatus represents the delivery status
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// OrganizationNotification tracks notifications sent to organization admins
type OrganizationNotification struct {
	ID               string             `json:"id" db:"id"`
	OrganizationID   string             `json:"organization_id" db:"organization_id"`
	NotificationType NotificationType   `json:"notification_type" db:"notification_type"`
	Recipient        string             `json:"recipient" db:"recipient"`
	Subject          string             `json:"subject" db:"subject"`
	Status           NotificationStatus `json:"status" db:"status"`
	SentAt           *time.Time         `json:"sent_at,omitempty" db:"sent_at"`
	FailedAt         *time.Time         `json:"failed_at,omitempty" db:"failed_at"`
	ErrorMessage     *string            `json:"error_message,omitempty" db:"error_message"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}

// WebhookEvent stores received webhook events for idempotency
type WebhookEvent struct {
	ID           string                 `json:"id" db:"id"`
	Provider     string                 `json:"provider" db:"provider"`
	EventType    string                 `json:"event_type" db:"event_type"`
	Payload      map[string]interface{} `json:"payload" db:"payload"`
	Processed    bool                   `json:"processed" db:"processed"`
	ProcessedAt  *time.Time             `json:"processed_at,omitempty" db:"processed_at"`
	ErrorMessage *string                `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
}
