package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// OrderEventType represents the type of order lifecycle event published on
// the event bus
type OrderEventType string

const (
	OrderEventTypeStatusChanged        OrderEventType = "status_changed"
	OrderEventTypeValidationRecorded   OrderEventType = "validation_recorded"
	OrderEventTypeSentToRadiology      OrderEventType = "sent_to_radiology"
	OrderEventTypeInformationRequested OrderEventType = "information_requested"
)

// OrderEvent is a real-time lifecycle event for an order. Events are
// published after the owning transaction commits; subscribers must treat
// them as notifications, not as the source of truth.
type OrderEvent struct {
	ID             string                 `json:"id"`
	OrderID        int64                  `json:"order_id"`
	EventType      OrderEventType         `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	PreviousStatus OrderStatus            `json:"previous_status,omitempty"`
	NewStatus      OrderStatus            `json:"new_status,omitempty"`
	ChangedFields  map[string]interface{} `json:"changed_fields,omitempty"`
}

// NewOrderEvent creates a new order event
func NewOrderEvent(orderID int64, eventType OrderEventType, previous, next OrderStatus) *OrderEvent {
	return &OrderEvent{
		ID:             generateEventID(),
		OrderID:        orderID,
		EventType:      eventType,
		Timestamp:      time.Now(),
		PreviousStatus: previous,
		NewStatus:      next,
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
