package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/application/services"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/providers"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

// validationFixture wires a ValidationService over mocked repositories and a
// sqlmock-backed client so transaction boundaries can be asserted.
type validationFixture struct {
	dbmock      sqlmock.Sqlmock
	orderRepo   *MockOrderRepository
	attemptRepo *MockValidationAttemptRepository
	historyRepo *MockOrderHistoryRepository
	orgRepo     *MockOrganizationRepository
	usageRepo   *MockCreditUsageRepository
	engine      *MockValidationEngine
	eventBus    *MockEventBus
	svc         *services.ValidationService
}

func newValidationFixture(t *testing.T) *validationFixture {
	t.Helper()

	db, dbmock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &validationFixture{
		dbmock:      dbmock,
		orderRepo:   new(MockOrderRepository),
		attemptRepo: new(MockValidationAttemptRepository),
		historyRepo: new(MockOrderHistoryRepository),
		orgRepo:     new(MockOrganizationRepository),
		usageRepo:   new(MockCreditUsageRepository),
		engine:      new(MockValidationEngine),
		eventBus:    new(MockEventBus),
	}

	client := postgres.NewClientFromDB(db)
	ledger := services.NewCreditLedgerService(f.orgRepo, f.usageRepo, new(MockBillingEventRepository), false)
	statusService := services.NewOrderStatusService(f.orderRepo, f.historyRepo)

	f.svc = services.NewValidationService(client, f.orderRepo, f.attemptRepo, f.historyRepo,
		ledger, statusService, f.engine, f.eventBus)
	return f
}

func appropriateVerdict() *providers.ValidationVerdict {
	return &providers.ValidationVerdict{
		ValidationStatus:    providers.VerdictAppropriate,
		ComplianceScore:     0.93,
		Feedback:            "indication supports advanced imaging",
		SuggestedICD10Codes: []string{"M54.16"},
		SuggestedCPTCodes:   []string{"72148"},
	}
}

func inappropriateVerdict() *providers.ValidationVerdict {
	return &providers.ValidationVerdict{
		ValidationStatus:    providers.VerdictInappropriate,
		ComplianceScore:     0.21,
		Feedback:            "conservative therapy not yet attempted",
		SuggestedICD10Codes: []string{"M54.50"},
		SuggestedCPTCodes:   []string{"72100"},
	}
}

func TestValidationService_SubmitValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("appropriate verdict debits, codes and advances the order", func(t *testing.T) {
		// Arrange
		f := newValidationFixture(t)

		// draft order commits on its own, then the attempt transaction
		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()
		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		f.orderRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(order *entities.Order) bool {
			return order.Status == entities.OrderStatusPendingValidation &&
				order.ReferringOrganizationID == "org-ref" &&
				order.PatientID == "patient-1" &&
				order.Priority == entities.OrderPriorityRoutine
		})).Return(int64(7), nil).Once()
		f.historyRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(event *entities.OrderHistoryEvent) bool {
			return event.EventType == entities.OrderEventCreated && event.OrderID == int64(7)
		})).Return(nil).Once()

		f.attemptRepo.On("NextAttemptNumber", ctx, mock.Anything, int64(7)).Return(1, nil)
		f.engine.On("Validate", ctx, "low back pain 8 weeks, failed PT", mock.Anything).
			Return(appropriateVerdict(), nil)

		f.orgRepo.On("DebitCredit", ctx, mock.Anything, "org-ref", entities.CreditTypeReferring).
			Return(99, nil)
		f.usageRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(log *entities.CreditUsageLog) bool {
			return log.ActionType == entities.ActionValidate && log.OrderID == int64(7)
		})).Return(nil).Once()

		f.attemptRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(attempt *entities.ValidationAttempt) bool {
			return attempt.OrderID == int64(7) &&
				attempt.AttemptNumber == 1 &&
				attempt.Outcome == entities.ValidationOutcomePassed &&
				attempt.ComplianceScore != nil
		})).Return(nil).Once()
		f.orderRepo.On("UpdateCoding", ctx, mock.Anything, int64(7),
			"72148", []string{"M54.16"}, false, mock.Anything, mock.Anything).
			Return(nil).Once()

		f.orderRepo.On("UpdateStatus", ctx, mock.Anything, int64(7),
			entities.OrderStatusPendingValidation, entities.OrderStatusPendingAdmin).
			Return(nil).Once()
		f.historyRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(event *entities.OrderHistoryEvent) bool {
			return event.EventType == entities.OrderEventValidated
		})).Return(nil).Once()

		f.eventBus.On("Publish", ctx, providers.EventChannelOrderUpdates, mock.Anything).Return(nil).Once()
		f.eventBus.On("Publish", ctx, providers.GetOrderChannel(7), mock.Anything).Return(nil).Once()

		// Act
		result, err := f.svc.SubmitValidation(ctx, services.ValidationRequest{
			OrganizationID: "org-ref",
			UserID:         "physician-1",
			PatientID:      "patient-1",
			Modality:       "MRI",
			Text:           "low back pain 8 weeks, failed PT",
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(7), result.OrderID)
		assert.Equal(t, 1, result.AttemptNumber)
		assert.Equal(t, entities.ValidationOutcomePassed, result.Outcome)
		assert.Equal(t, entities.OrderStatusPendingAdmin, result.OrderStatus)
		assert.Equal(t, 99, result.RemainingCredit)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
		f.orderRepo.AssertExpectations(t)
		f.eventBus.AssertExpectations(t)
	})

	t.Run("override accepts an inappropriate verdict with justification", func(t *testing.T) {
		// Arrange
		f := newValidationFixture(t)

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		f.orderRepo.On("GetByID", ctx, int64(7)).Return(&entities.Order{
			ID:                      7,
			Status:                  entities.OrderStatusPendingValidation,
			ReferringOrganizationID: "org-ref",
		}, nil)
		f.attemptRepo.On("NextAttemptNumber", ctx, mock.Anything, int64(7)).Return(2, nil)
		f.engine.On("Validate", ctx, mock.Anything, mock.MatchedBy(func(vctx providers.ValidationContext) bool {
			return vctx.IsOverride
		})).Return(inappropriateVerdict(), nil)

		f.orgRepo.On("DebitCredit", ctx, mock.Anything, "org-ref", entities.CreditTypeReferring).
			Return(98, nil)
		f.usageRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(log *entities.CreditUsageLog) bool {
			return log.ActionType == entities.ActionOverrideValidate
		})).Return(nil).Once()

		f.attemptRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(attempt *entities.ValidationAttempt) bool {
			return attempt.Outcome == entities.ValidationOutcomeOverridden
		})).Return(nil).Once()
		f.orderRepo.On("UpdateCoding", ctx, mock.Anything, int64(7),
			"72100", []string{"M54.50"}, true,
			mock.MatchedBy(func(justification *string) bool {
				return justification != nil && *justification == "red flag symptoms documented"
			}), mock.Anything).Return(nil).Once()

		f.orderRepo.On("UpdateStatus", ctx, mock.Anything, int64(7),
			entities.OrderStatusPendingValidation, entities.OrderStatusPendingAdmin).
			Return(nil).Once()
		f.historyRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(event *entities.OrderHistoryEvent) bool {
			return event.EventType == entities.OrderEventOverrideValidated
		})).Return(nil).Once()

		f.eventBus.On("Publish", ctx, mock.Anything, mock.Anything).Return(nil)

		// Act
		result, err := f.svc.SubmitValidation(ctx, services.ValidationRequest{
			OrderID:               7,
			OrganizationID:        "org-ref",
			UserID:                "physician-1",
			Text:                  "lumbar MRI, prior conservative care not tolerated",
			IsOverride:            true,
			OverrideJustification: "red flag symptoms documented",
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entities.ValidationOutcomeOverridden, result.Outcome)
		assert.Equal(t, entities.OrderStatusPendingAdmin, result.OrderStatus)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})

	t.Run("rejected verdict below the limit charges nothing and stays open", func(t *testing.T) {
		// Arrange
		f := newValidationFixture(t)

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		f.orderRepo.On("GetByID", ctx, int64(7)).Return(&entities.Order{
			ID:                      7,
			Status:                  entities.OrderStatusPendingValidation,
			ReferringOrganizationID: "org-ref",
		}, nil)
		f.attemptRepo.On("NextAttemptNumber", ctx, mock.Anything, int64(7)).Return(1, nil)
		f.engine.On("Validate", ctx, mock.Anything, mock.Anything).Return(inappropriateVerdict(), nil)
		f.attemptRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(attempt *entities.ValidationAttempt) bool {
			return attempt.Outcome == entities.ValidationOutcomeRejected && attempt.AttemptNumber == 1
		})).Return(nil).Once()
		f.eventBus.On("Publish", ctx, mock.Anything, mock.Anything).Return(nil)

		// Act
		result, err := f.svc.SubmitValidation(ctx, services.ValidationRequest{
			OrderID:        7,
			OrganizationID: "org-ref",
			UserID:         "physician-1",
			Text:           "back pain",
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entities.ValidationOutcomeRejected, result.Outcome)
		assert.Equal(t, entities.OrderStatusPendingValidation, result.OrderStatus)
		f.orgRepo.AssertNotCalled(t, "DebitCredit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})

	t.Run("third rejection moves the order to validation_failed", func(t *testing.T) {
		// Arrange
		f := newValidationFixture(t)

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		f.orderRepo.On("GetByID", ctx, int64(7)).Return(&entities.Order{
			ID:                      7,
			Status:                  entities.OrderStatusPendingValidation,
			ReferringOrganizationID: "org-ref",
		}, nil)
		f.attemptRepo.On("NextAttemptNumber", ctx, mock.Anything, int64(7)).Return(3, nil)
		f.engine.On("Validate", ctx, mock.Anything, mock.Anything).Return(inappropriateVerdict(), nil)
		f.attemptRepo.On("Append", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		f.orderRepo.On("UpdateStatus", ctx, mock.Anything, int64(7),
			entities.OrderStatusPendingValidation, entities.OrderStatusValidationFailed).
			Return(nil).Once()
		f.historyRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(event *entities.OrderHistoryEvent) bool {
			return event.EventType == entities.OrderEventValidationFailed
		})).Return(nil).Once()
		f.eventBus.On("Publish", ctx, mock.Anything, mock.Anything).Return(nil)

		// Act
		result, err := f.svc.SubmitValidation(ctx, services.ValidationRequest{
			OrderID:        7,
			OrganizationID: "org-ref",
			UserID:         "physician-1",
			Text:           "back pain",
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entities.OrderStatusValidationFailed, result.OrderStatus)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})

	t.Run("engine failure commits the attempt row and charges nothing", func(t *testing.T) {
		// Arrange
		f := newValidationFixture(t)

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		f.orderRepo.On("GetByID", ctx, int64(7)).Return(&entities.Order{
			ID:                      7,
			Status:                  entities.OrderStatusPendingValidation,
			ReferringOrganizationID: "org-ref",
		}, nil)
		f.attemptRepo.On("NextAttemptNumber", ctx, mock.Anything, int64(7)).Return(1, nil)
		f.engine.On("Validate", ctx, mock.Anything, mock.Anything).
			Return(nil, errors.New("engine timeout"))
		f.attemptRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(attempt *entities.ValidationAttempt) bool {
			return attempt.Outcome == entities.ValidationOutcomeFailed
		})).Return(nil).Once()

		// Act
		result, err := f.svc.SubmitValidation(ctx, services.ValidationRequest{
			OrderID:        7,
			OrganizationID: "org-ref",
			UserID:         "physician-1",
			Text:           "back pain",
		})

		// Assert
		require.Error(t, err)
		require.NotNil(t, result)
		assert.Equal(t, entities.ValidationOutcomeFailed, result.Outcome)
		assert.Equal(t, entities.OrderStatusPendingValidation, result.OrderStatus)
		f.orgRepo.AssertNotCalled(t, "DebitCredit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})

	t.Run("insufficient credits rolls back the attempt but the draft survives", func(t *testing.T) {
		// Arrange
		f := newValidationFixture(t)

		// draft commits, attempt transaction rolls back on the rejected debit
		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()
		f.dbmock.ExpectBegin()
		f.dbmock.ExpectRollback()

		f.orderRepo.On("Create", ctx, mock.Anything, mock.Anything).Return(int64(11), nil).Once()
		f.historyRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(event *entities.OrderHistoryEvent) bool {
			return event.EventType == entities.OrderEventCreated
		})).Return(nil).Once()

		f.attemptRepo.On("NextAttemptNumber", ctx, mock.Anything, int64(11)).Return(1, nil)
		f.engine.On("Validate", ctx, mock.Anything, mock.Anything).Return(appropriateVerdict(), nil)
		f.orgRepo.On("DebitCredit", ctx, mock.Anything, "org-ref", entities.CreditTypeReferring).
			Return(0, apperrors.NewInsufficientCreditsError("organization has no referring_credit remaining", 0))

		// Act
		_, err := f.svc.SubmitValidation(ctx, services.ValidationRequest{
			OrganizationID: "org-ref",
			UserID:         "physician-1",
			PatientID:      "patient-1",
			Modality:       "MRI",
			Text:           "low back pain",
		})

		// Assert
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInsufficientCredits))
		appErr, ok := err.(*apperrors.AppError)
		require.True(t, ok)
		assert.Equal(t, int64(11), appErr.OrderID)
		f.usageRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
		f.attemptRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})

	t.Run("new order requires a patient id", func(t *testing.T) {
		f := newValidationFixture(t)

		_, err := f.svc.SubmitValidation(ctx, services.ValidationRequest{
			OrganizationID: "org-ref",
			UserID:         "physician-1",
			Text:           "back pain",
		})

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})

	t.Run("existing order must be awaiting validation", func(t *testing.T) {
		f := newValidationFixture(t)

		f.orderRepo.On("GetByID", ctx, int64(7)).Return(&entities.Order{
			ID:     7,
			Status: entities.OrderStatusPendingAdmin,
		}, nil)

		_, err := f.svc.SubmitValidation(ctx, services.ValidationRequest{
			OrderID:        7,
			OrganizationID: "org-ref",
			UserID:         "physician-1",
			Text:           "back pain",
		})

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})

	t.Run("draft owned by another organization is rejected before any work", func(t *testing.T) {
		// Arrange
		f := newValidationFixture(t)

		f.orderRepo.On("GetByID", ctx, int64(11)).Return(&entities.Order{
			ID:                      11,
			Status:                  entities.OrderStatusPendingValidation,
			ReferringOrganizationID: "org-owner",
		}, nil)

		// Act
		_, err := f.svc.SubmitValidation(ctx, services.ValidationRequest{
			OrderID:        11,
			OrganizationID: "org-intruder",
			UserID:         "physician-9",
			Text:           "back pain",
		})

		// Assert
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
		f.engine.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything, mock.Anything)
		f.orgRepo.AssertNotCalled(t, "DebitCredit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})
}
