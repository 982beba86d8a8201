package repositories

import (
	"context"
	"database/sql"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
)

// OrderHistoryRepository appends order audit trail rows. Append-only.
type OrderHistoryRepository interface {
	// Append writes one history row inside the caller's transaction
	Append(ctx context.Context, tx *sql.Tx, event *entities.OrderHistoryEvent) error

	// ListByOrder returns the audit trail for an order, oldest first
	ListByOrder(ctx context.Context, orderID int64) ([]*entities.OrderHistoryEvent, error)
}
