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

// CreditUsageAdapter implements the CreditUsageRepository interface. The
// table is append-only; this adapter deliberately has no update or delete.
type CreditUsageAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCreditUsageAdapter creates a new credit usage adapter
func NewCreditUsageAdapter(client *postgres.Client) repositories.CreditUsageRepository {
	return &CreditUsageAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Append writes one usage log row inside the debit's transaction
func (a *CreditUsageAdapter) Append(ctx context.Context, tx *sql.Tx, log *entities.CreditUsageLog) error {
	query, args, err := a.db.Insert("credit_usage_logs").Rows(goqu.Record{
		"id":              log.ID,
		"organization_id": log.OrganizationID,
		"user_id":         log.UserID,
		"order_id":        log.OrderID,
		"tokens_burned":   log.TokensBurned,
		"action_type":     log.ActionType,
		"credit_type":     log.CreditType,
		"created_at":      log.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build usage log insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to append usage log", err)
	}

	return nil
}

// ListByOrder returns the usage rows recorded for an order
func (a *CreditUsageAdapter) ListByOrder(ctx context.Context, orderID int64) ([]*entities.CreditUsageLog, error) {
	query, args, err := a.db.Select(
		"id", "organization_id", "user_id", "order_id",
		"tokens_burned", "action_type", "credit_type", "created_at",
	).From("credit_usage_logs").
		Where(goqu.Ex{"order_id": orderID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build usage log query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list usage logs", err)
	}
	defer rows.Close()

	var logs []*entities.CreditUsageLog
	for rows.Next() {
		log := &entities.CreditUsageLog{}
		err := rows.Scan(
			&log.ID,
			&log.OrganizationID,
			&log.UserID,
			&log.OrderID,
			&log.TokensBurned,
			&log.ActionType,
			&log.CreditType,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan usage log", err)
		}
		logs = append(logs, log)
	}

	return logs, nil
}
