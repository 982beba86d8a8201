package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/providers"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

// maxValidationAttempts is the number of rejected attempts after which an
// order moves to validation_failed instead of staying open for retry
const maxValidationAttempts = 3

// ValidationRequest is one physician validation submission. OrderID zero
// means no draft order exists yet and one is created.
type ValidationRequest struct {
	OrderID               int64
	OrganizationID        string
	UserID                string
	PatientID             string
	Modality              string
	Priority              entities.OrderPriority
	Text                  string
	IsOverride            bool
	OverrideJustification string
}

// ValidationResult is what a validation submission returns to the caller
type ValidationResult struct {
	OrderID         int64                        `json:"order_id"`
	AttemptNumber   int                          `json:"attempt_number"`
	Outcome         entities.ValidationOutcome   `json:"outcome"`
	OrderStatus     entities.OrderStatus         `json:"order_status"`
	Verdict         *providers.ValidationVerdict `json:"verdict,omitempty"`
	RemainingCredit int                          `json:"remaining_credit"`
}

// ValidationService orchestrates physician order validation: draft creation,
// the external engine call, attempt logging, the referring-side debit and the
// transition to pending_admin.
type ValidationService struct {
	client        *postgres.Client
	orderRepo     repositories.OrderRepository
	attemptRepo   repositories.ValidationAttemptRepository
	historyRepo   repositories.OrderHistoryRepository
	ledger        *CreditLedgerService
	statusService *OrderStatusService
	engine        providers.ValidationEngine
	eventBus      providers.EventBus
}

// NewValidationService creates a new validation service
func NewValidationService(
	client *postgres.Client,
	orderRepo repositories.OrderRepository,
	attemptRepo repositories.ValidationAttemptRepository,
	historyRepo repositories.OrderHistoryRepository,
	ledger *CreditLedgerService,
	statusService *OrderStatusService,
	engine providers.ValidationEngine,
	eventBus providers.EventBus,
) *ValidationService {
	return &ValidationService{
		client:        client,
		orderRepo:     orderRepo,
		attemptRepo:   attemptRepo,
		historyRepo:   historyRepo,
		ledger:        ledger,
		statusService: statusService,
		engine:        engine,
		eventBus:      eventBus,
	}
}

// SubmitValidation runs one validation attempt. The draft order is committed
// on its own so the order id survives a later rollback: engine compute and
// the order itself are sunk even when the debit is rejected.
func (s *ValidationService) SubmitValidation(ctx context.Context, req ValidationRequest) (*ValidationResult, error) {
	logger := observability.LoggerFromContext(ctx)

	orderID := req.OrderID
	if orderID == 0 {
		created, err := s.createDraftOrder(ctx, req)
		if err != nil {
			return nil, err
		}
		orderID = created
	} else {
		order, err := s.statusService.VerifyOrderStatus(ctx, orderID, entities.OrderStatusPendingValidation)
		if err != nil {
			return nil, err
		}
		// The draft belongs to the referring organization; nobody else may
		// advance it or be debited for it.
		if order.ReferringOrganizationID != req.OrganizationID {
			return nil, apperrors.NewUnauthorizedError(
				fmt.Sprintf("order %d belongs to a different organization", orderID))
		}
	}

	result := &ValidationResult{OrderID: orderID}

	// The engine is awaited inside the unit of work; the HTTP client timeout
	// bounds how long the transaction stays open.
	var submitErr error
	err := s.client.WithinTx(ctx, func(tx *sql.Tx) error {
		attemptNumber, err := s.attemptRepo.NextAttemptNumber(ctx, tx, orderID)
		if err != nil {
			return err
		}
		result.AttemptNumber = attemptNumber

		verdict, engineErr := s.engine.Validate(ctx, req.Text, providers.ValidationContext{
			OrderID:    orderID,
			Modality:   req.Modality,
			IsOverride: req.IsOverride,
		})
		if engineErr != nil {
			// Engine failure: log the attempt, charge nothing, leave the
			// order where it is. The attempt row commits; the call fails.
			submitErr = engineErr
			result.Outcome = entities.ValidationOutcomeFailed
			result.OrderStatus = entities.OrderStatusPendingValidation
			return s.appendAttempt(ctx, tx, orderID, attemptNumber, req.Text, entities.ValidationOutcomeFailed, nil)
		}
		result.Verdict = verdict

		if verdict.ValidationStatus == providers.VerdictAppropriate || req.IsOverride {
			return s.recordAcceptedAttempt(ctx, tx, orderID, attemptNumber, req, verdict, result)
		}
		return s.recordRejectedAttempt(ctx, tx, orderID, attemptNumber, req, verdict, result)
	})
	if err != nil {
		return nil, err
	}
	if submitErr != nil {
		return result, submitErr
	}

	s.publishValidationEvent(ctx, result)

	logger.Info().
		Int64("order_id", orderID).
		Int("attempt", result.AttemptNumber).
		Str("outcome", string(result.Outcome)).
		Msg("validation attempt recorded")

	return result, nil
}

// createDraftOrder commits the draft in its own transaction
func (s *ValidationService) createDraftOrder(ctx context.Context, req ValidationRequest) (int64, error) {
	if req.PatientID == "" {
		return 0, apperrors.NewValidationError("patient_id is required for a new order")
	}

	priority := req.Priority
	if priority == "" {
		priority = entities.OrderPriorityRoutine
	}

	var orderID int64
	err := s.client.WithinTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		order := &entities.Order{
			Status:                  entities.OrderStatusPendingValidation,
			ReferringOrganizationID: req.OrganizationID,
			PatientID:               req.PatientID,
			Priority:                priority,
			Modality:                req.Modality,
			CreatedAt:               now,
			UpdatedAt:               now,
		}

		id, err := s.orderRepo.Create(ctx, tx, order)
		if err != nil {
			return err
		}
		orderID = id

		status := entities.OrderStatusPendingValidation
		event := &entities.OrderHistoryEvent{
			ID:        uuid.New().String(),
			OrderID:   id,
			UserID:    req.UserID,
			EventType: entities.OrderEventCreated,
			NewStatus: &status,
			CreatedAt: now,
		}
		return s.historyRepo.Append(ctx, tx, event)
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// recordAcceptedAttempt debits the referring organization, stores the final
// codes and moves the order to pending_admin, all in the enclosing tx
func (s *ValidationService) recordAcceptedAttempt(ctx context.Context, tx *sql.Tx, orderID int64, attemptNumber int, req ValidationRequest, verdict *providers.ValidationVerdict, result *ValidationResult) error {
	action := entities.ActionValidate
	outcome := entities.ValidationOutcomePassed
	historyType := entities.OrderEventValidated
	if req.IsOverride {
		action = entities.ActionOverrideValidate
		outcome = entities.ValidationOutcomeOverridden
		historyType = entities.OrderEventOverrideValidated
	}

	remaining, err := s.ledger.Debit(ctx, tx, DebitParams{
		OrganizationID: req.OrganizationID,
		UserID:         req.UserID,
		OrderID:        orderID,
		ActionType:     action,
		CreditType:     entities.CreditTypeReferring,
	})
	if err != nil {
		return err
	}
	result.RemainingCredit = remaining

	if err := s.appendAttempt(ctx, tx, orderID, attemptNumber, req.Text, outcome, verdict); err != nil {
		return err
	}

	var cptCode string
	if len(verdict.SuggestedCPTCodes) > 0 {
		cptCode = verdict.SuggestedCPTCodes[0]
	}
	var justification *string
	if req.IsOverride && req.OverrideJustification != "" {
		justification = &req.OverrideJustification
	}
	signedBy := req.UserID
	if err := s.orderRepo.UpdateCoding(ctx, tx, orderID, cptCode, verdict.SuggestedICD10Codes, req.IsOverride, justification, &signedBy); err != nil {
		return err
	}

	if err := s.statusService.Transition(ctx, tx, orderID,
		entities.OrderStatusPendingValidation, entities.OrderStatusPendingAdmin,
		req.UserID, historyType); err != nil {
		return err
	}

	result.Outcome = outcome
	result.OrderStatus = entities.OrderStatusPendingAdmin
	return nil
}

// recordRejectedAttempt logs the rejection without debiting. The order stays
// open for retry until the attempt limit, then moves to validation_failed.
func (s *ValidationService) recordRejectedAttempt(ctx context.Context, tx *sql.Tx, orderID int64, attemptNumber int, req ValidationRequest, verdict *providers.ValidationVerdict, result *ValidationResult) error {
	if err := s.appendAttempt(ctx, tx, orderID, attemptNumber, req.Text, entities.ValidationOutcomeRejected, verdict); err != nil {
		return err
	}

	result.Outcome = entities.ValidationOutcomeRejected
	result.OrderStatus = entities.OrderStatusPendingValidation

	if attemptNumber >= maxValidationAttempts {
		if err := s.statusService.Transition(ctx, tx, orderID,
			entities.OrderStatusPendingValidation, entities.OrderStatusValidationFailed,
			req.UserID, entities.OrderEventValidationFailed); err != nil {
			return err
		}
		result.OrderStatus = entities.OrderStatusValidationFailed
	}

	return nil
}

func (s *ValidationService) appendAttempt(ctx context.Context, tx *sql.Tx, orderID int64, attemptNumber int, text string, outcome entities.ValidationOutcome, verdict *providers.ValidationVerdict) error {
	attempt := &entities.ValidationAttempt{
		ID:            uuid.New().String(),
		OrderID:       orderID,
		AttemptNumber: attemptNumber,
		InputText:     text,
		Outcome:       outcome,
		CreatedAt:     time.Now(),
	}
	if verdict != nil {
		attempt.SuggestedCPTCodes = verdict.SuggestedCPTCodes
		attempt.SuggestedICD10Codes = verdict.SuggestedICD10Codes
		attempt.ComplianceScore = &verdict.ComplianceScore
		if verdict.Feedback != "" {
			attempt.Feedback = &verdict.Feedback
		}
	}
	return s.attemptRepo.Append(ctx, tx, attempt)
}

// publishValidationEvent notifies subscribers after the commit. A publish
// failure is logged, never surfaced.
func (s *ValidationService) publishValidationEvent(ctx context.Context, result *ValidationResult) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewOrderEvent(result.OrderID, entities.OrderEventTypeValidationRecorded,
		entities.OrderStatusPendingValidation, result.OrderStatus)
	for _, channel := range []string{providers.EventChannelOrderUpdates, providers.GetOrderChannel(result.OrderID)} {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Int64("order_id", result.OrderID).
				Str("channel", channel).
				Msg("failed to publish validation event")
		}
	}
}
