package repositories

import (
	"context"
	"database/sql"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
)

// OrganizationRepository defines the interface for organization data
// operations, including the credit balance columns the ledger debits against.
type OrganizationRepository interface {
	// GetByID retrieves an organization by id
	GetByID(ctx context.Context, id string) (*entities.Organization, error)

	// GetByBillingCustomerID resolves a billing provider customer id to the
	// organization it belongs to
	GetByBillingCustomerID(ctx context.Context, customerID string) (*entities.Organization, error)

	// DebitCredit decrements the balance column for the given credit type by
	// one as a single conditional UPDATE and returns the new balance. An
	// exhausted balance yields an insufficient-credits error and no change.
	DebitCredit(ctx context.Context, tx *sql.Tx, organizationID string, creditType entities.CreditType) (int, error)

	// SetBalancesForTier overwrites the balance columns with the tier's fixed
	// allocation and records the new subscription tier
	SetBalancesForTier(ctx context.Context, tx *sql.Tx, organizationID string, tier entities.SubscriptionTier, allocation entities.TierAllocation) error

	// UpdateStatus sets the organization status. It reports whether the row
	// actually changed, so re-applying the same target state is a no-op diff.
	UpdateStatus(ctx context.Context, tx *sql.Tx, organizationID string, status entities.OrganizationStatus) (bool, error)
}
