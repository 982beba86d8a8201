package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

// ValidationAttemptAdapter implements the ValidationAttemptRepository
// interface. Append-only.
type ValidationAttemptAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewValidationAttemptAdapter creates a new validation attempt adapter
func NewValidationAttemptAdapter(client *postgres.Client) repositories.ValidationAttemptRepository {
	return &ValidationAttemptAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Append writes one attempt row
func (a *ValidationAttemptAdapter) Append(ctx context.Context, tx *sql.Tx, attempt *entities.ValidationAttempt) error {
	query, args, err := a.db.Insert("validation_attempts").Rows(goqu.Record{
		"id":                    attempt.ID,
		"order_id":              attempt.OrderID,
		"attempt_number":        attempt.AttemptNumber,
		"input_text":            attempt.InputText,
		"outcome":               attempt.Outcome,
		"suggested_cpt_codes":   pq.Array(attempt.SuggestedCPTCodes),
		"suggested_icd10_codes": pq.Array(attempt.SuggestedICD10Codes),
		"compliance_score":      attempt.ComplianceScore,
		"feedback":              attempt.Feedback,
		"created_at":            attempt.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build attempt insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to append validation attempt", err)
	}

	return nil
}

// NextAttemptNumber returns max(attempt_number)+1 for the order, starting at 1
func (a *ValidationAttemptAdapter) NextAttemptNumber(ctx context.Context, tx *sql.Tx, orderID int64) (int, error) {
	query, args, err := a.db.Select(goqu.COALESCE(goqu.MAX("attempt_number"), 0)).
		From("validation_attempts").
		Where(goqu.Ex{"order_id": orderID}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build attempt number query", err)
	}

	var maxAttempt int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&maxAttempt); err != nil {
		return 0, apperrors.NewInternalError("failed to get attempt number", err)
	}

	return maxAttempt + 1, nil
}

// ListByOrder returns the attempts recorded for an order, oldest first
func (a *ValidationAttemptAdapter) ListByOrder(ctx context.Context, orderID int64) ([]*entities.ValidationAttempt, error) {
	query, args, err := a.db.Select(
		"id", "order_id", "attempt_number", "input_text", "outcome",
		"suggested_cpt_codes", "suggested_icd10_codes", "compliance_score",
		"feedback", "created_at",
	).From("validation_attempts").
		Where(goqu.Ex{"order_id": orderID}).
		Order(goqu.I("attempt_number").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build attempts query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list validation attempts", err)
	}
	defer rows.Close()

	var attempts []*entities.ValidationAttempt
	for rows.Next() {
		attempt := &entities.ValidationAttempt{}
		var cptCodes, icd10Codes pq.StringArray
		var score sql.NullFloat64
		var feedback sql.NullString

		err := rows.Scan(
			&attempt.ID,
			&attempt.OrderID,
			&attempt.AttemptNumber,
			&attempt.InputText,
			&attempt.Outcome,
			&cptCodes,
			&icd10Codes,
			&score,
			&feedback,
			&attempt.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan validation attempt", err)
		}

		attempt.SuggestedCPTCodes = cptCodes
		attempt.SuggestedICD10Codes = icd10Codes
		if score.Valid {
			attempt.ComplianceScore = &score.Float64
		}
		if feedback.Valid {
			attempt.Feedback = &feedback.String
		}

		attempts = append(attempts, attempt)
	}

	return attempts, nil
}
