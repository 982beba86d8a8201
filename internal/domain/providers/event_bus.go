package providers

import (
	"context"
	"strconv"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to order
// lifecycle events. Publishing happens after the owning transaction commits.
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.OrderEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.OrderEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelOrderUpdates is the channel for all order updates
	EventChannelOrderUpdates = "order:updates"

	// EventChannelOrderPrefix is the prefix for order-specific channels
	EventChannelOrderPrefix = "order:"

	// EventChannelOrganizationPrefix is the prefix for per-organization channels
	EventChannelOrganizationPrefix = "organization:"
)

// GetOrderChannel returns the channel name for a specific order
func GetOrderChannel(orderID int64) string {
	return EventChannelOrderPrefix + strconv.FormatInt(orderID, 10)
}

// GetOrganizationChannel returns the channel name for a specific organization
func GetOrganizationChannel(organizationID string) string {
	return EventChannelOrganizationPrefix + organizationID
}
