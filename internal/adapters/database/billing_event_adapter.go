package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

// BillingEventAdapter implements the BillingEventRepository interface
type BillingEventAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBillingEventAdapter creates a new billing event adapter
func NewBillingEventAdapter(client *postgres.Client) repositories.BillingEventRepository {
	return &BillingEventAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Append writes one billing event row
func (a *BillingEventAdapter) Append(ctx context.Context, tx *sql.Tx, event *entities.BillingEvent) error {
	query, args, err := a.db.Insert("billing_events").Rows(goqu.Record{
		"id":              event.ID,
		"organization_id": event.OrganizationID,
		"event_type":      event.EventType,
		"tier":            event.Tier,
		"credits_granted": event.CreditsGranted,
		"created_at":      event.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build billing event insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to append billing event", err)
	}

	return nil
}
