package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

// RelationshipAdapter implements the RelationshipRepository interface
type RelationshipAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRelationshipAdapter creates a new relationship adapter
func NewRelationshipAdapter(client *postgres.Client) repositories.RelationshipRepository {
	return &RelationshipAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// UpdateStatusForOrganization flips every relationship touching the
// organization, on either side, from one status to another
func (a *RelationshipAdapter) UpdateStatusForOrganization(ctx context.Context, tx *sql.Tx, organizationID string, from, to entities.RelationshipStatus) (int64, error) {
	query, args, err := a.db.Update("organization_relationships").
		Set(goqu.Record{
			"status":     to,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"status": from}).
		Where(goqu.Or(
			goqu.Ex{"referring_organization_id": organizationID},
			goqu.Ex{"radiology_organization_id": organizationID},
		)).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build relationship update query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to update relationships", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}

	return rowsAffected, nil
}

// GetActiveBetween returns the active routing link between two organizations
func (a *RelationshipAdapter) GetActiveBetween(ctx context.Context, referringID, radiologyID string) (*entities.OrganizationRelationship, error) {
	query, args, err := a.db.Select(
		"id", "referring_organization_id", "radiology_organization_id",
		"status", "created_at", "updated_at",
	).From("organization_relationships").
		Where(goqu.Ex{
			"referring_organization_id": referringID,
			"radiology_organization_id": radiologyID,
			"status":                    entities.RelationshipStatusActive,
		}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build relationship query", err)
	}

	relationship := &entities.OrganizationRelationship{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&relationship.ID,
		&relationship.ReferringOrganizationID,
		&relationship.RadiologyOrganizationID,
		&relationship.Status,
		&relationship.CreatedAt,
		&relationship.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("no active relationship between organizations")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get relationship", err)
	}

	return relationship, nil
}
