package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

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

type adminFixture struct {
	dbmock           sqlmock.Sqlmock
	orderRepo        *MockOrderRepository
	orgRepo          *MockOrganizationRepository
	patientRepo      *MockPatientRepository
	relationshipRepo *MockRelationshipRepository
	historyRepo      *MockOrderHistoryRepository
	usageRepo        *MockCreditUsageRepository
	userRepo         *MockUserRepository
	parser           *MockEMRParser
	eventBus         *MockEventBus
	svc              *services.AdminOrderService
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()

	db, dbmock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &adminFixture{
		dbmock:           dbmock,
		orderRepo:        new(MockOrderRepository),
		orgRepo:          new(MockOrganizationRepository),
		patientRepo:      new(MockPatientRepository),
		relationshipRepo: new(MockRelationshipRepository),
		historyRepo:      new(MockOrderHistoryRepository),
		usageRepo:        new(MockCreditUsageRepository),
		userRepo:         new(MockUserRepository),
		parser:           new(MockEMRParser),
		eventBus:         new(MockEventBus),
	}

	client := postgres.NewClientFromDB(db)
	ledger := services.NewCreditLedgerService(f.orgRepo, f.usageRepo, new(MockBillingEventRepository), false)
	statusService := services.NewOrderStatusService(f.orderRepo, f.historyRepo)
	notificationService := services.NewNotificationService(nil, new(MockNotificationSender), f.userRepo)

	f.svc = services.NewAdminOrderService(client, f.orderRepo, f.orgRepo, f.patientRepo,
		f.relationshipRepo, ledger, statusService, f.parser, f.eventBus, notificationService)
	return f
}

func finalizedOrder() *entities.Order {
	return &entities.Order{
		ID:                      7,
		Status:                  entities.OrderStatusPendingAdmin,
		ReferringOrganizationID: "org-ref",
		PatientID:               "patient-1",
		Modality:                "MRI",
		FinalCPTCode:            "72148",
		FinalICD10Codes:         []string{"M54.16"},
	}
}

func completePatient() *entities.Patient {
	dob := time.Date(1967, 3, 14, 0, 0, 0, 0, time.UTC)
	return &entities.Patient{
		ID:           "patient-1",
		FirstName:    "Morgan",
		LastName:     "Ellery",
		DateOfBirth:  &dob,
		Gender:       "F",
		Phone:        "603-555-0142",
		AddressLine1: "12 Birchwood Ln",
		City:         "Concord",
		State:        "NH",
		ZipCode:      "03301",
	}
}

func completeInsurance() *entities.Insurance {
	return &entities.Insurance{
		ID:               "ins-1",
		PatientID:        "patient-1",
		IsPrimary:        true,
		InsurerName:      "Granite State Health",
		PolicyNumber:     "GSH-4471",
		PolicyHolderName: "Morgan Ellery",
	}
}

func activeOrg(id string, orgType entities.OrganizationType) *entities.Organization {
	return &entities.Organization{
		ID:     id,
		Name:   id,
		Type:   orgType,
		Status: entities.OrganizationStatusActive,
	}
}

func TestAdminOrderService_SendToRadiology(t *testing.T) {
	ctx := context.Background()

	t.Run("debits both sides and advances the order", func(t *testing.T) {
		// Arrange
		f := newAdminFixture(t)

		// referring debit + transition, then the radiology debit on its own
		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()
		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		f.orderRepo.On("GetByID", ctx, int64(7)).Return(finalizedOrder(), nil)
		f.patientRepo.On("GetByID", ctx, "patient-1").Return(completePatient(), nil)
		f.patientRepo.On("GetPrimaryInsurance", ctx, "patient-1").Return(completeInsurance(), nil)
		f.orgRepo.On("GetByID", ctx, "org-ref").Return(activeOrg("org-ref", entities.OrganizationTypeReferring), nil)
		f.orgRepo.On("GetByID", ctx, "org-rad").Return(activeOrg("org-rad", entities.OrganizationTypeRadiology), nil)
		f.relationshipRepo.On("GetActiveBetween", ctx, "org-ref", "org-rad").
			Return(&entities.OrganizationRelationship{Status: entities.RelationshipStatusActive}, nil)

		f.orgRepo.On("DebitCredit", ctx, mock.Anything, "org-ref", entities.CreditTypeReferring).
			Return(9, nil).Once()
		f.usageRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(log *entities.CreditUsageLog) bool {
			return log.ActionType == entities.ActionOrderSubmitted && log.OrganizationID == "org-ref"
		})).Return(nil).Once()
		f.orderRepo.On("AssignRadiologyOrganization", ctx, mock.Anything, int64(7), "org-rad").
			Return(nil).Once()
		f.orderRepo.On("UpdateStatus", ctx, mock.Anything, int64(7),
			entities.OrderStatusPendingAdmin, entities.OrderStatusPendingRadiology).
			Return(nil).Once()
		f.historyRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(event *entities.OrderHistoryEvent) bool {
			return event.EventType == entities.OrderEventSentToRadiology
		})).Return(nil).Once()

		f.eventBus.On("Publish", ctx, providers.EventChannelOrderUpdates, mock.Anything).Return(nil).Once()
		f.eventBus.On("Publish", ctx, providers.GetOrderChannel(7), mock.Anything).Return(nil).Once()

		// MRI classifies as advanced imaging on the radiology side
		f.orgRepo.On("DebitCredit", ctx, mock.Anything, "org-rad", entities.CreditTypeRadiologyAdvanced).
			Return(49, nil).Once()
		f.usageRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(log *entities.CreditUsageLog) bool {
			return log.ActionType == entities.ActionOrderReceived && log.OrganizationID == "org-rad"
		})).Return(nil).Once()

		// Act
		err := f.svc.SendToRadiology(ctx, 7, "org-rad", "admin-1")

		// Assert
		require.NoError(t, err)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
		f.orgRepo.AssertExpectations(t)
		f.usageRepo.AssertExpectations(t)
	})

	t.Run("radiology-side debit failure never unwinds the submission", func(t *testing.T) {
		// Arrange
		f := newAdminFixture(t)

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()
		f.dbmock.ExpectBegin()
		f.dbmock.ExpectRollback()

		f.orderRepo.On("GetByID", ctx, int64(7)).Return(finalizedOrder(), nil)
		f.patientRepo.On("GetByID", ctx, "patient-1").Return(completePatient(), nil)
		f.patientRepo.On("GetPrimaryInsurance", ctx, "patient-1").Return(completeInsurance(), nil)
		f.orgRepo.On("GetByID", ctx, "org-ref").Return(activeOrg("org-ref", entities.OrganizationTypeReferring), nil)
		f.orgRepo.On("GetByID", ctx, "org-rad").Return(activeOrg("org-rad", entities.OrganizationTypeRadiology), nil)
		f.relationshipRepo.On("GetActiveBetween", ctx, "org-ref", "org-rad").
			Return(&entities.OrganizationRelationship{Status: entities.RelationshipStatusActive}, nil)

		f.orgRepo.On("DebitCredit", ctx, mock.Anything, "org-ref", entities.CreditTypeReferring).
			Return(9, nil).Once()
		f.usageRepo.On("Append", ctx, mock.Anything, mock.Anything).Return(nil).Once()
		f.orderRepo.On("AssignRadiologyOrganization", ctx, mock.Anything, int64(7), "org-rad").Return(nil).Once()
		f.orderRepo.On("UpdateStatus", ctx, mock.Anything, int64(7),
			entities.OrderStatusPendingAdmin, entities.OrderStatusPendingRadiology).Return(nil).Once()
		f.historyRepo.On("Append", ctx, mock.Anything, mock.Anything).Return(nil).Once()
		f.eventBus.On("Publish", ctx, mock.Anything, mock.Anything).Return(nil)

		f.orgRepo.On("DebitCredit", ctx, mock.Anything, "org-rad", entities.CreditTypeRadiologyAdvanced).
			Return(0, apperrors.NewInsufficientCreditsError("organization has no radiology_advanced remaining", 0)).Once()
		f.userRepo.On("ListAdminsByOrganization", ctx, "org-rad").Return([]*entities.User{}, nil).Once()

		// Act
		err := f.svc.SendToRadiology(ctx, 7, "org-rad", "admin-1")

		// Assert: the submission stands
		require.NoError(t, err)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
		f.userRepo.AssertExpectations(t)
	})

	t.Run("referring debit failure notifies admins and fails the call", func(t *testing.T) {
		// Arrange
		f := newAdminFixture(t)

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectRollback()

		f.orderRepo.On("GetByID", ctx, int64(7)).Return(finalizedOrder(), nil)
		f.patientRepo.On("GetByID", ctx, "patient-1").Return(completePatient(), nil)
		f.patientRepo.On("GetPrimaryInsurance", ctx, "patient-1").Return(completeInsurance(), nil)
		f.orgRepo.On("GetByID", ctx, "org-ref").Return(activeOrg("org-ref", entities.OrganizationTypeReferring), nil)
		f.orgRepo.On("GetByID", ctx, "org-rad").Return(activeOrg("org-rad", entities.OrganizationTypeRadiology), nil)
		f.relationshipRepo.On("GetActiveBetween", ctx, "org-ref", "org-rad").
			Return(&entities.OrganizationRelationship{Status: entities.RelationshipStatusActive}, nil)

		f.orgRepo.On("DebitCredit", ctx, mock.Anything, "org-ref", entities.CreditTypeReferring).
			Return(0, apperrors.NewInsufficientCreditsError("organization has no referring_credit remaining", 0)).Once()
		f.userRepo.On("ListAdminsByOrganization", ctx, "org-ref").Return([]*entities.User{}, nil).Once()

		// Act
		err := f.svc.SendToRadiology(ctx, 7, "org-rad", "admin-1")

		// Assert
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInsufficientCredits))
		f.orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
		f.userRepo.AssertExpectations(t)
	})

	t.Run("missing fields are aggregated into one error", func(t *testing.T) {
		// Arrange
		f := newAdminFixture(t)

		order := finalizedOrder()
		order.FinalCPTCode = ""
		order.FinalICD10Codes = nil

		f.orderRepo.On("GetByID", ctx, int64(7)).Return(order, nil)
		f.patientRepo.On("GetByID", ctx, "patient-1").Return(&entities.Patient{
			ID:        "patient-1",
			FirstName: "Morgan",
			LastName:  "Ellery",
		}, nil)
		f.patientRepo.On("GetPrimaryInsurance", ctx, "patient-1").
			Return(nil, apperrors.NewNotFoundError("patient has no primary insurance"))

		// Act
		err := f.svc.SendToRadiology(ctx, 7, "org-rad", "admin-1")

		// Assert
		require.Error(t, err)
		appErr, ok := err.(*apperrors.AppError)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
		assert.ElementsMatch(t, []string{
			"final_cpt_code", "final_icd10_codes",
			"patient.date_of_birth", "patient.gender", "patient.phone",
			"patient.address_line1", "patient.city", "patient.state", "patient.zip_code",
			"insurance.primary",
		}, appErr.MissingFields)
		f.orgRepo.AssertNotCalled(t, "DebitCredit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("suspended radiology organization blocks the submission", func(t *testing.T) {
		f := newAdminFixture(t)

		suspended := activeOrg("org-rad", entities.OrganizationTypeRadiology)
		suspended.Status = entities.OrganizationStatusPurgatory

		f.orderRepo.On("GetByID", ctx, int64(7)).Return(finalizedOrder(), nil)
		f.patientRepo.On("GetByID", ctx, "patient-1").Return(completePatient(), nil)
		f.patientRepo.On("GetPrimaryInsurance", ctx, "patient-1").Return(completeInsurance(), nil)
		f.orgRepo.On("GetByID", ctx, "org-ref").Return(activeOrg("org-ref", entities.OrganizationTypeReferring), nil)
		f.orgRepo.On("GetByID", ctx, "org-rad").Return(suspended, nil)

		err := f.svc.SendToRadiology(ctx, 7, "org-rad", "admin-1")

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	})

	t.Run("organizations without an active relationship cannot route", func(t *testing.T) {
		f := newAdminFixture(t)

		f.orderRepo.On("GetByID", ctx, int64(7)).Return(finalizedOrder(), nil)
		f.patientRepo.On("GetByID", ctx, "patient-1").Return(completePatient(), nil)
		f.patientRepo.On("GetPrimaryInsurance", ctx, "patient-1").Return(completeInsurance(), nil)
		f.orgRepo.On("GetByID", ctx, "org-ref").Return(activeOrg("org-ref", entities.OrganizationTypeReferring), nil)
		f.orgRepo.On("GetByID", ctx, "org-rad").Return(activeOrg("org-rad", entities.OrganizationTypeRadiology), nil)
		f.relationshipRepo.On("GetActiveBetween", ctx, "org-ref", "org-rad").
			Return(nil, apperrors.NewNotFoundError("no active relationship"))

		err := f.svc.SendToRadiology(ctx, 7, "org-rad", "admin-1")

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		f.orgRepo.AssertNotCalled(t, "DebitCredit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAdminOrderService_IngestSupplementalText(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the text verbatim then applies parsed fields", func(t *testing.T) {
		// Arrange
		f := newAdminFixture(t)

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()
		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		f.orderRepo.On("GetByID", ctx, int64(7)).Return(finalizedOrder(), nil)
		f.orderRepo.On("SetSupplementalText", ctx, mock.Anything, int64(7), "DOB 03/14/1967, BCBS policy 4471").
			Return(nil).Once()

		phone := "603-555-0142"
		insurer := "Granite State Health"
		f.parser.On("Parse", ctx, "DOB 03/14/1967, BCBS policy 4471").Return(&providers.ParsedEMRText{
			PatientInfo:   &entities.PatientUpdate{Phone: &phone},
			InsuranceInfo: &entities.InsuranceUpdate{InsurerName: &insurer},
		}, nil)

		f.patientRepo.On("ApplyUpdate", ctx, mock.Anything, "patient-1", mock.MatchedBy(func(update *entities.PatientUpdate) bool {
			return update.Phone != nil && *update.Phone == phone && update.FirstName == nil
		})).Return(nil).Once()
		f.patientRepo.On("ApplyInsuranceUpdate", ctx, mock.Anything, "patient-1", mock.Anything).
			Return(nil).Once()

		// Act
		err := f.svc.IngestSupplementalText(ctx, 7, "admin-1", "DOB 03/14/1967, BCBS policy 4471")

		// Assert
		require.NoError(t, err)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
		f.patientRepo.AssertExpectations(t)
	})

	t.Run("parser failure keeps the stored text", func(t *testing.T) {
		// Arrange
		f := newAdminFixture(t)

		// the verbatim text commits before the parser runs
		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		f.orderRepo.On("GetByID", ctx, int64(7)).Return(finalizedOrder(), nil)
		f.orderRepo.On("SetSupplementalText", ctx, mock.Anything, int64(7), "garbled paste").
			Return(nil).Once()
		f.parser.On("Parse", ctx, "garbled paste").Return(nil, errors.New("parser unavailable"))

		// Act
		err := f.svc.IngestSupplementalText(ctx, 7, "admin-1", "garbled paste")

		// Assert
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
		f.patientRepo.AssertNotCalled(t, "ApplyUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})

	t.Run("empty text is rejected", func(t *testing.T) {
		f := newAdminFixture(t)

		err := f.svc.IngestSupplementalText(ctx, 7, "admin-1", "")

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestAdminOrderService_RequestInformation(t *testing.T) {
	ctx := context.Background()

	t.Run("published event carries the order's actual status", func(t *testing.T) {
		// Arrange
		f := newAdminFixture(t)

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		order := finalizedOrder()
		order.Status = entities.OrderStatusScheduled
		f.orderRepo.On("GetByID", ctx, int64(7)).Return(order, nil)
		f.historyRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(event *entities.OrderHistoryEvent) bool {
			return event.EventType == entities.OrderEventInformationRequested &&
				event.Note != nil && *event.Note == "missing contrast allergy history"
		})).Return(nil).Once()

		published := mock.MatchedBy(func(event *entities.OrderEvent) bool {
			return event.EventType == entities.OrderEventTypeInformationRequested &&
				event.PreviousStatus == entities.OrderStatusScheduled &&
				event.NewStatus == entities.OrderStatusScheduled
		})
		f.eventBus.On("Publish", ctx, providers.EventChannelOrderUpdates, published).Return(nil).Once()
		f.eventBus.On("Publish", ctx, providers.GetOrderChannel(7), published).Return(nil).Once()

		// Act
		err := f.svc.RequestInformation(ctx, 7, "admin-1", "missing contrast allergy history")

		// Assert
		require.NoError(t, err)
		f.eventBus.AssertExpectations(t)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})

	t.Run("terminal order publishes nothing", func(t *testing.T) {
		f := newAdminFixture(t)

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectRollback()

		order := finalizedOrder()
		order.Status = entities.OrderStatusCompleted
		f.orderRepo.On("GetByID", ctx, int64(7)).Return(order, nil)

		err := f.svc.RequestInformation(ctx, 7, "admin-1", "anything")

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))
		f.eventBus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})
}
