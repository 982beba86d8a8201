package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

// OrderAdapter implements the OrderRepository interface
type OrderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewOrderAdapter creates a new order adapter
func NewOrderAdapter(client *postgres.Client) repositories.OrderRepository {
	return &OrderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a new draft order and returns its generated id
func (a *OrderAdapter) Create(ctx context.Context, tx *sql.Tx, order *entities.Order) (int64, error) {
	query, args, err := a.db.Insert("orders").Rows(goqu.Record{
		"status":                    order.Status,
		"referring_organization_id": order.ReferringOrganizationID,
		"radiology_organization_id": order.RadiologyOrganizationID,
		"patient_id":                order.PatientID,
		"priority":                  order.Priority,
		"modality":                  order.Modality,
		"final_cpt_code":            order.FinalCPTCode,
		"final_icd10_codes":         pq.Array(order.FinalICD10Codes),
		"overridden":                order.Overridden,
		"created_at":                order.CreatedAt,
		"updated_at":                order.UpdatedAt,
	}).Returning("id").ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build insert query", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, apperrors.NewInternalError("failed to create order", err)
	}

	return id, nil
}

// GetByID retrieves an order by ID
func (a *OrderAdapter) GetByID(ctx context.Context, id int64) (*entities.Order, error) {
	query, args, err := a.db.Select(
		"id", "status", "referring_organization_id", "radiology_organization_id",
		"patient_id", "priority", "modality", "final_cpt_code", "final_icd10_codes",
		"overridden", "override_justification", "signed_by_user_id",
		"supplemental_text", "created_at", "updated_at",
	).From("orders").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	order := &entities.Order{}
	var radiologyOrgID, overrideJustification, signedBy, supplementalText sql.NullString
	var icd10Codes pq.StringArray

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&order.ID,
		&order.Status,
		&order.ReferringOrganizationID,
		&radiologyOrgID,
		&order.PatientID,
		&order.Priority,
		&order.Modality,
		&order.FinalCPTCode,
		&icd10Codes,
		&order.Overridden,
		&overrideJustification,
		&signedBy,
		&supplementalText,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order %d not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get order", err)
	}

	order.FinalICD10Codes = icd10Codes
	if radiologyOrgID.Valid {
		order.RadiologyOrganizationID = &radiologyOrgID.String
	}
	if overrideJustification.Valid {
		order.OverrideJustification = &overrideJustification.String
	}
	if signedBy.Valid {
		order.SignedByUserID = &signedBy.String
	}
	if supplementalText.Valid {
		order.SupplementalText = &supplementalText.String
	}

	return order, nil
}

// UpdateStatus moves an order between statuses, guarded on the expected
// current status so a concurrent transition cannot be overwritten
func (a *OrderAdapter) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, from, to entities.OrderStatus) error {
	query, args, err := a.db.Update("orders").
		Set(goqu.Record{
			"status":     to,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id, "status": from}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build status update query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update order status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewInvalidStateError(
			fmt.Sprintf("order %d is not in status %s", id, from))
	}

	return nil
}

// UpdateCoding records final CPT/ICD-10 codes and override metadata
func (a *OrderAdapter) UpdateCoding(ctx context.Context, tx *sql.Tx, id int64, cptCode string, icd10Codes []string, overridden bool, justification *string, signedBy *string) error {
	query, args, err := a.db.Update("orders").
		Set(goqu.Record{
			"final_cpt_code":         cptCode,
			"final_icd10_codes":      pq.Array(icd10Codes),
			"overridden":             overridden,
			"override_justification": justification,
			"signed_by_user_id":      signedBy,
			"updated_at":             time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build coding update query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update order coding", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("order %d not found", id))
	}

	return nil
}

// SetSupplementalText stores pasted EMR text verbatim before any parsing
func (a *OrderAdapter) SetSupplementalText(ctx context.Context, tx *sql.Tx, id int64, text string) error {
	query, args, err := a.db.Update("orders").
		Set(goqu.Record{
			"supplemental_text": text,
			"updated_at":        time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build supplemental text query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to store supplemental text", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("order %d not found", id))
	}

	return nil
}

// AssignRadiologyOrganization sets the radiology group an order routes to
func (a *OrderAdapter) AssignRadiologyOrganization(ctx context.Context, tx *sql.Tx, id int64, organizationID string) error {
	query, args, err := a.db.Update("orders").
		Set(goqu.Record{
			"radiology_organization_id": organizationID,
			"updated_at":                time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build assignment query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to assign radiology organization", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("order %d not found", id))
	}

	return nil
}
