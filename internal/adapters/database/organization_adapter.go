package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

// OrganizationAdapter implements the OrganizationRepository interface
type OrganizationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewOrganizationAdapter creates a new organization adapter
func NewOrganizationAdapter(client *postgres.Client) repositories.OrganizationRepository {
	return &OrganizationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// balanceColumns maps each credit type to the balance column it debits
var balanceColumns = map[entities.CreditType]string{
	entities.CreditTypeReferring:         "credit_balance",
	entities.CreditTypeRadiologyBasic:    "basic_credit_balance",
	entities.CreditTypeRadiologyAdvanced: "advanced_credit_balance",
}

// GetByID retrieves an organization by ID
func (a *OrganizationAdapter) GetByID(ctx context.Context, id string) (*entities.Organization, error) {
	query, args, err := a.db.Select(
		"id", "name", "type", "status", "subscription_tier", "billing_customer_id",
		"credit_balance", "basic_credit_balance", "advanced_credit_balance",
		"created_at", "updated_at",
	).From("organizations").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.scanOrganization(a.client.DB().QueryRowContext(ctx, query, args...), id)
}

// GetByBillingCustomerID resolves a billing provider customer ID to its organization
func (a *OrganizationAdapter) GetByBillingCustomerID(ctx context.Context, customerID string) (*entities.Organization, error) {
	query, args, err := a.db.Select(
		"id", "name", "type", "status", "subscription_tier", "billing_customer_id",
		"credit_balance", "basic_credit_balance", "advanced_credit_balance",
		"created_at", "updated_at",
	).From("organizations").
		Where(goqu.Ex{"billing_customer_id": customerID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.scanOrganization(a.client.DB().QueryRowContext(ctx, query, args...), customerID)
}

func (a *OrganizationAdapter) scanOrganization(row *sql.Row, key string) (*entities.Organization, error) {
	org := &entities.Organization{}
	var billingCustomerID sql.NullString

	err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Type,
		&org.Status,
		&org.SubscriptionTier,
		&billingCustomerID,
		&org.CreditBalance,
		&org.BasicCreditBalance,
		&org.AdvancedCreditBalance,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("organization %s not found", key))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get organization", err)
	}

	if billingCustomerID.Valid {
		org.BillingCustomerID = &billingCustomerID.String
	}
	return org, nil
}

// DebitCredit decrements one credit from the balance column for the given
// credit type. The bounds check and the decrement are a single conditional
// UPDATE, so concurrent debits serialize at the row level; there is no
// read-then-write window.
func (a *OrganizationAdapter) DebitCredit(ctx context.Context, tx *sql.Tx, organizationID string, creditType entities.CreditType) (int, error) {
	column, ok := balanceColumns[creditType]
	if !ok {
		return 0, apperrors.NewInternalError(fmt.Sprintf("unknown credit type %s", creditType), nil)
	}

	query := fmt.Sprintf(
		`UPDATE organizations SET %s = %s - 1, updated_at = $1 WHERE id = $2 AND %s > 0 RETURNING %s`,
		column, column, column, column,
	)

	var newBalance int
	err := tx.QueryRowContext(ctx, query, time.Now(), organizationID).Scan(&newBalance)
	if err == sql.ErrNoRows {
		return 0, apperrors.NewInsufficientCreditsError(
			fmt.Sprintf("organization %s has no %s remaining", organizationID, creditType), 0)
	}
	if err != nil {
		return 0, apperrors.NewInternalError("failed to debit credit", err)
	}

	return newBalance, nil
}

// SetBalancesForTier overwrites the balance columns with the tier's fixed
// allocation and records the tier. Replenishment never adds to an existing
// balance.
func (a *OrganizationAdapter) SetBalancesForTier(ctx context.Context, tx *sql.Tx, organizationID string, tier entities.SubscriptionTier, allocation entities.TierAllocation) error {
	query, args, err := a.db.Update("organizations").
		Set(goqu.Record{
			"subscription_tier":       tier,
			"credit_balance":          allocation.ReferringCredits,
			"basic_credit_balance":    allocation.BasicCredits,
			"advanced_credit_balance": allocation.AdvancedCredits,
			"updated_at":              time.Now(),
		}).
		Where(goqu.Ex{"id": organizationID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build replenish query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to replenish balances", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("organization %s not found", organizationID))
	}

	return nil
}

// UpdateStatus sets the organization status, guarded so that re-applying the
// current status reports no change
func (a *OrganizationAdapter) UpdateStatus(ctx context.Context, tx *sql.Tx, organizationID string, status entities.OrganizationStatus) (bool, error) {
	query, args, err := a.db.Update("organizations").
		Set(goqu.Record{
			"status":     status,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": organizationID}).
		Where(goqu.C("status").Neq(status)).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build status update query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewInternalError("failed to update organization status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternalError("failed to get rows affected", err)
	}

	return rowsAffected > 0, nil
}
