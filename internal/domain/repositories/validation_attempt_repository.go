package repositories

import (
	"context"
	"database/sql"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
)

// ValidationAttemptRepository records clinical validation attempts.
// Append-only.
type ValidationAttemptRepository interface {
	// Append writes one attempt row
	Append(ctx context.Context, tx *sql.Tx, attempt *entities.ValidationAttempt) error

	// NextAttemptNumber returns max(attempt_number)+1 for the order,
	// starting at 1 when no attempts exist
	NextAttemptNumber(ctx context.Context, tx *sql.Tx, orderID int64) (int, error)

	// ListByOrder returns the attempts recorded for an order, oldest first
	ListByOrder(ctx context.Context, orderID int64) ([]*entities.ValidationAttempt, error)
}
