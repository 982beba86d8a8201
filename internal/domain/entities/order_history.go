package entities

import (
	"time"
)

// OrderHistoryEventType categorizes order audit trail rows
type OrderHistoryEventType string

const (
	OrderEventCreated              OrderHistoryEventType = "created"
	OrderEventValidated            OrderHistoryEventType = "validated"
	OrderEventValidationFailed     OrderHistoryEventType = "validation_failed"
	OrderEventOverrideValidated    OrderHistoryEventType = "override_validated"
	OrderEventSigned               OrderHistoryEventType = "signed"
	OrderEventStatusChanged        OrderHistoryEventType = "status_changed"
	OrderEventInformationRequested OrderHistoryEventType = "information_requested"
	OrderEventSentToRadiology      OrderHistoryEventType = "sent_to_radiology"
)

// OrderHistoryEvent is one append-only audit trail row. One row is written
// per meaningful transition; rows are never updated or deleted.
type OrderHistoryEvent struct {
	ID             string                `json:"id" db:"id"`
	OrderID        int64                 `json:"order_id" db:"order_id"`
	UserID         string                `json:"user_id" db:"user_id"`
	EventType      OrderHistoryEventType `json:"event_type" db:"event_type"`
	PreviousStatus *OrderStatus          `json:"previous_status" db:"previous_status"`
	NewStatus      *OrderStatus          `json:"new_status" db:"new_status"`
	Note           *string               `json:"note" db:"note"`
	CreatedAt      time.Time             `json:"created_at" db:"created_at"`
}
