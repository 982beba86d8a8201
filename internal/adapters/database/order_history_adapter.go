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

// OrderHistoryAdapter implements the OrderHistoryRepository interface.
// Rows are append-only; nothing here updates or deletes.
type OrderHistoryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewOrderHistoryAdapter creates a new order history adapter
func NewOrderHistoryAdapter(client *postgres.Client) repositories.OrderHistoryRepository {
	return &OrderHistoryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Append writes one history row inside the caller's transaction
func (a *OrderHistoryAdapter) Append(ctx context.Context, tx *sql.Tx, event *entities.OrderHistoryEvent) error {
	query, args, err := a.db.Insert("order_history").Rows(goqu.Record{
		"id":              event.ID,
		"order_id":        event.OrderID,
		"user_id":         event.UserID,
		"event_type":      event.EventType,
		"previous_status": event.PreviousStatus,
		"new_status":      event.NewStatus,
		"note":            event.Note,
		"created_at":      event.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build history insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to append order history", err)
	}

	return nil
}

// ListByOrder returns the audit trail for an order, oldest first
func (a *OrderHistoryAdapter) ListByOrder(ctx context.Context, orderID int64) ([]*entities.OrderHistoryEvent, error) {
	query, args, err := a.db.Select(
		"id", "order_id", "user_id", "event_type",
		"previous_status", "new_status", "note", "created_at",
	).From("order_history").
		Where(goqu.Ex{"order_id": orderID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build history query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list order history", err)
	}
	defer rows.Close()

	var events []*entities.OrderHistoryEvent
	for rows.Next() {
		event := &entities.OrderHistoryEvent{}
		var previousStatus, newStatus, note sql.NullString

		err := rows.Scan(
			&event.ID,
			&event.OrderID,
			&event.UserID,
			&event.EventType,
			&previousStatus,
			&newStatus,
			&note,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan history event", err)
		}

		if previousStatus.Valid {
			status := entities.OrderStatus(previousStatus.String)
			event.PreviousStatus = &status
		}
		if newStatus.Valid {
			status := entities.OrderStatus(newStatus.String)
			event.NewStatus = &status
		}
		if note.Valid {
			event.Note = &note.String
		}

		events = append(events, event)
	}

	return events, nil
}
