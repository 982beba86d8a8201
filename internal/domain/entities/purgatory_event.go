package entities

import (
	"time"
)

// PurgatoryEventStatus is the resolution state of a purgatory event
type PurgatoryEventStatus string

const (
	PurgatoryEventPending  PurgatoryEventStatus = "pending"
	PurgatoryEventResolved PurgatoryEventStatus = "resolved"
)

// Purgatory entry reasons derived from subscription lifecycle events
const (
	PurgatoryReasonSubscriptionCanceled = "subscription_canceled"
	PurgatoryReasonPaymentFailed        = "payment_failed"
)

// PurgatoryEvent records an organization entering billing purgatory. Created
// and resolved only by the subscription webhook reconciler.
type PurgatoryEvent struct {
	ID             string               `json:"id" db:"id"`
	OrganizationID string               `json:"organization_id" db:"organization_id"`
	Reason         string               `json:"reason" db:"reason"`
	TriggeredBy    string               `json:"triggered_by" db:"triggered_by"`
	Status         PurgatoryEventStatus `json:"status" db:"status"`
	ResolvedAt     *time.Time           `json:"resolved_at" db:"resolved_at"`
	CreatedAt      time.Time            `json:"created_at" db:"created_at"`
}
