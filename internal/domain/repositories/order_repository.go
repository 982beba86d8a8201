package repositories

import (
	"context"
	"database/sql"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
)

// OrderRepository defines the interface for order data operations. Write
// operations run inside the caller's transaction so that the status change,
// the audit trail and the ledger debit commit as one unit.
type OrderRepository interface {
	// Create inserts a new draft order and returns its id
	Create(ctx context.Context, tx *sql.Tx, order *entities.Order) (int64, error)

	// GetByID retrieves an order by id
	GetByID(ctx context.Context, id int64) (*entities.Order, error)

	// UpdateStatus moves an order from one status to another. The update is
	// guarded on the expected current status; zero rows affected means the
	// order was not in that status.
	UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, from, to entities.OrderStatus) error

	// UpdateCoding records final CPT/ICD-10 codes and override metadata
	UpdateCoding(ctx context.Context, tx *sql.Tx, id int64, cptCode string, icd10Codes []string, overridden bool, justification *string, signedBy *string) error

	// SetSupplementalText stores pasted EMR text verbatim
	SetSupplementalText(ctx context.Context, tx *sql.Tx, id int64, text string) error

	// AssignRadiologyOrganization sets the radiology group an order routes to
	AssignRadiologyOrganization(ctx context.Context, tx *sql.Tx, id int64, organizationID string) error
}
