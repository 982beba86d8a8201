package repositories

import (
	"context"
	"database/sql"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
)

// CreditUsageRepository appends immutable credit ledger entries. There is no
// update or delete; corrections would be new rows.
type CreditUsageRepository interface {
	// Append writes one usage log row inside the debit's transaction
	Append(ctx context.Context, tx *sql.Tx, log *entities.CreditUsageLog) error

	// ListByOrder returns the usage rows recorded for an order
	ListByOrder(ctx context.Context, orderID int64) ([]*entities.CreditUsageLog, error)
}

// BillingEventRepository appends billing event rows such as replenishments
type BillingEventRepository interface {
	// Append writes one billing event row
	Append(ctx context.Context, tx *sql.Tx, event *entities.BillingEvent) error
}
