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

// PurgatoryAdapter implements the PurgatoryRepository interface
type PurgatoryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPurgatoryAdapter creates a new purgatory adapter
func NewPurgatoryAdapter(client *postgres.Client) repositories.PurgatoryRepository {
	return &PurgatoryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create writes a new pending purgatory event
func (a *PurgatoryAdapter) Create(ctx context.Context, tx *sql.Tx, event *entities.PurgatoryEvent) error {
	query, args, err := a.db.Insert("purgatory_events").Rows(goqu.Record{
		"id":              event.ID,
		"organization_id": event.OrganizationID,
		"reason":          event.Reason,
		"triggered_by":    event.TriggeredBy,
		"status":          event.Status,
		"created_at":      event.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build purgatory insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create purgatory event", err)
	}

	return nil
}

// ResolveOpenByOrganization marks every pending event for the organization
// resolved
func (a *PurgatoryAdapter) ResolveOpenByOrganization(ctx context.Context, tx *sql.Tx, organizationID string) (int64, error) {
	query, args, err := a.db.Update("purgatory_events").
		Set(goqu.Record{
			"status":      entities.PurgatoryEventResolved,
			"resolved_at": time.Now(),
		}).
		Where(goqu.Ex{
			"organization_id": organizationID,
			"status":          entities.PurgatoryEventPending,
		}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build purgatory resolve query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to resolve purgatory events", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}

	return rowsAffected, nil
}
