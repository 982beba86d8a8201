package services_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/application/services"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

type subscriptionFixture struct {
	dbmock           sqlmock.Sqlmock
	orgRepo          *MockOrganizationRepository
	relationshipRepo *MockRelationshipRepository
	purgatoryRepo    *MockPurgatoryRepository
	billingRepo      *MockBillingEventRepository
	userRepo         *MockUserRepository
	svc              *services.SubscriptionService
}

func newSubscriptionFixture(t *testing.T, priceTierMap map[string]string) *subscriptionFixture {
	t.Helper()

	db, dbmock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &subscriptionFixture{
		dbmock:           dbmock,
		orgRepo:          new(MockOrganizationRepository),
		relationshipRepo: new(MockRelationshipRepository),
		purgatoryRepo:    new(MockPurgatoryRepository),
		billingRepo:      new(MockBillingEventRepository),
		userRepo:         new(MockUserRepository),
	}

	client := postgres.NewClientFromDB(db)
	ledger := services.NewCreditLedgerService(f.orgRepo, new(MockCreditUsageRepository), f.billingRepo, false)
	notificationService := services.NewNotificationService(nil, new(MockNotificationSender), f.userRepo)

	f.svc = services.NewSubscriptionService(client, f.orgRepo, f.relationshipRepo,
		f.purgatoryRepo, ledger, notificationService, priceTierMap)
	return f
}

func billedOrg(status entities.OrganizationStatus, tier entities.SubscriptionTier) *entities.Organization {
	customerID := "cus_1001"
	return &entities.Organization{
		ID:                "org-1",
		Name:              "Lakeside Family Medicine",
		Type:              entities.OrganizationTypeReferring,
		Status:            status,
		SubscriptionTier:  tier,
		BillingCustomerID: &customerID,
	}
}

func TestSubscriptionService_HandleSubscriptionUpdated(t *testing.T) {
	ctx := context.Background()

	t.Run("payment failure suspends the organization and its relationships", func(t *testing.T) {
		// Arrange
		f := newSubscriptionFixture(t, nil)

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		f.orgRepo.On("GetByBillingCustomerID", ctx, "cus_1001").
			Return(billedOrg(entities.OrganizationStatusActive, entities.TierOne), nil)
		f.orgRepo.On("UpdateStatus", ctx, mock.Anything, "org-1", entities.OrganizationStatusPurgatory).
			Return(true, nil).Once()
		f.purgatoryRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(event *entities.PurgatoryEvent) bool {
			return event.OrganizationID == "org-1" &&
				event.Reason == entities.PurgatoryReasonPaymentFailed &&
				event.TriggeredBy == "evt_1" &&
				event.Status == entities.PurgatoryEventPending
		})).Return(nil).Once()
		f.relationshipRepo.On("UpdateStatusForOrganization", ctx, mock.Anything, "org-1",
			entities.RelationshipStatusActive, entities.RelationshipStatusPurgatory).
			Return(int64(3), nil).Once()
		f.userRepo.On("ListAdminsByOrganization", ctx, "org-1").Return([]*entities.User{}, nil)

		// Act
		outcome, err := f.svc.HandleSubscriptionUpdated(ctx, services.SubscriptionEvent{
			EventID:    "evt_1",
			CustomerID: "cus_1001",
			Status:     "past_due",
		})

		// Assert
		require.NoError(t, err)
		assert.True(t, outcome.StatusChanged)
		assert.True(t, outcome.EnteredPurgatory)
		assert.False(t, outcome.LeftPurgatory)
		assert.Equal(t, int64(3), outcome.RelationshipsFlipped)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
		f.purgatoryRepo.AssertExpectations(t)
	})

	t.Run("cancellation records the subscription_canceled reason", func(t *testing.T) {
		f := newSubscriptionFixture(t, nil)

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		f.orgRepo.On("GetByBillingCustomerID", ctx, "cus_1001").
			Return(billedOrg(entities.OrganizationStatusActive, entities.TierOne), nil)
		f.orgRepo.On("UpdateStatus", ctx, mock.Anything, "org-1", entities.OrganizationStatusPurgatory).
			Return(true, nil).Once()
		f.purgatoryRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(event *entities.PurgatoryEvent) bool {
			return event.Reason == entities.PurgatoryReasonSubscriptionCanceled
		})).Return(nil).Once()
		f.relationshipRepo.On("UpdateStatusForOrganization", ctx, mock.Anything, "org-1",
			entities.RelationshipStatusActive, entities.RelationshipStatusPurgatory).
			Return(int64(1), nil).Once()
		f.userRepo.On("ListAdminsByOrganization", ctx, "org-1").Return([]*entities.User{}, nil)

		outcome, err := f.svc.HandleSubscriptionUpdated(ctx, services.SubscriptionEvent{
			EventID:    "evt_2",
			CustomerID: "cus_1001",
			Status:     "canceled",
		})

		require.NoError(t, err)
		assert.True(t, outcome.EnteredPurgatory)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})

	t.Run("reactivation resolves purgatory and restores relationships", func(t *testing.T) {
		// Arrange
		f := newSubscriptionFixture(t, nil)

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		f.orgRepo.On("GetByBillingCustomerID", ctx, "cus_1001").
			Return(billedOrg(entities.OrganizationStatusPurgatory, entities.TierOne), nil)
		f.orgRepo.On("UpdateStatus", ctx, mock.Anything, "org-1", entities.OrganizationStatusActive).
			Return(true, nil).Once()
		f.purgatoryRepo.On("ResolveOpenByOrganization", ctx, mock.Anything, "org-1").
			Return(int64(1), nil).Once()
		f.relationshipRepo.On("UpdateStatusForOrganization", ctx, mock.Anything, "org-1",
			entities.RelationshipStatusPurgatory, entities.RelationshipStatusActive).
			Return(int64(3), nil).Once()
		f.userRepo.On("ListAdminsByOrganization", ctx, "org-1").Return([]*entities.User{}, nil)

		// Act
		outcome, err := f.svc.HandleSubscriptionUpdated(ctx, services.SubscriptionEvent{
			EventID:    "evt_3",
			CustomerID: "cus_1001",
			Status:     "active",
		})

		// Assert
		require.NoError(t, err)
		assert.True(t, outcome.LeftPurgatory)
		assert.False(t, outcome.EnteredPurgatory)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
		f.purgatoryRepo.AssertExpectations(t)
	})

	t.Run("replaying the same target state is a no-op diff", func(t *testing.T) {
		f := newSubscriptionFixture(t, nil)

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		f.orgRepo.On("GetByBillingCustomerID", ctx, "cus_1001").
			Return(billedOrg(entities.OrganizationStatusActive, entities.TierOne), nil)
		f.orgRepo.On("UpdateStatus", ctx, mock.Anything, "org-1", entities.OrganizationStatusActive).
			Return(false, nil).Once()

		outcome, err := f.svc.HandleSubscriptionUpdated(ctx, services.SubscriptionEvent{
			EventID:    "evt_4",
			CustomerID: "cus_1001",
			Status:     "active",
		})

		require.NoError(t, err)
		assert.False(t, outcome.StatusChanged)
		f.purgatoryRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		f.purgatoryRepo.AssertNotCalled(t, "ResolveOpenByOrganization", mock.Anything, mock.Anything, mock.Anything)
		f.relationshipRepo.AssertNotCalled(t, "UpdateStatusForOrganization",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})

	t.Run("mapped price id change replenishes the new tier", func(t *testing.T) {
		// Arrange
		f := newSubscriptionFixture(t, map[string]string{"price_pro": "tier_2"})

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		allocation, ok := entities.AllocationForTier(entities.TierTwo)
		require.True(t, ok)

		f.orgRepo.On("GetByBillingCustomerID", ctx, "cus_1001").
			Return(billedOrg(entities.OrganizationStatusActive, entities.TierOne), nil)
		f.orgRepo.On("UpdateStatus", ctx, mock.Anything, "org-1", entities.OrganizationStatusActive).
			Return(false, nil).Once()
		f.orgRepo.On("SetBalancesForTier", ctx, mock.Anything, "org-1", entities.TierTwo, allocation).
			Return(nil).Once()
		f.billingRepo.On("Append", ctx, mock.Anything, mock.MatchedBy(func(event *entities.BillingEvent) bool {
			return event.Tier == entities.TierTwo &&
				event.EventType == entities.BillingEventReplenishment
		})).Return(nil).Once()
		f.userRepo.On("ListAdminsByOrganization", ctx, "org-1").Return([]*entities.User{}, nil)

		// Act
		outcome, err := f.svc.HandleSubscriptionUpdated(ctx, services.SubscriptionEvent{
			EventID:    "evt_5",
			CustomerID: "cus_1001",
			Status:     "active",
			PriceID:    "price_pro",
		})

		// Assert
		require.NoError(t, err)
		assert.True(t, outcome.TierChanged)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
		f.billingRepo.AssertExpectations(t)
	})

	t.Run("unmapped price id never replenishes", func(t *testing.T) {
		f := newSubscriptionFixture(t, map[string]string{"price_pro": "tier_2"})

		f.dbmock.ExpectBegin()
		f.dbmock.ExpectCommit()

		f.orgRepo.On("GetByBillingCustomerID", ctx, "cus_1001").
			Return(billedOrg(entities.OrganizationStatusActive, entities.TierOne), nil)
		f.orgRepo.On("UpdateStatus", ctx, mock.Anything, "org-1", entities.OrganizationStatusActive).
			Return(false, nil).Once()

		outcome, err := f.svc.HandleSubscriptionUpdated(ctx, services.SubscriptionEvent{
			EventID:    "evt_6",
			CustomerID: "cus_1001",
			Status:     "active",
			PriceID:    "price_unknown",
		})

		require.NoError(t, err)
		assert.False(t, outcome.TierChanged)
		f.orgRepo.AssertNotCalled(t, "SetBalancesForTier",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		require.NoError(t, f.dbmock.ExpectationsWereMet())
	})

	t.Run("unknown billing customer fails the event", func(t *testing.T) {
		f := newSubscriptionFixture(t, nil)

		f.orgRepo.On("GetByBillingCustomerID", ctx, "cus_missing").
			Return(nil, apperrors.NewNotFoundError("no organization for billing customer cus_missing"))

		_, err := f.svc.HandleSubscriptionUpdated(ctx, services.SubscriptionEvent{
			EventID:    "evt_7",
			CustomerID: "cus_missing",
			Status:     "active",
		})

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestSubscriptionService_ResolveTier(t *testing.T) {
	f := newSubscriptionFixture(t, map[string]string{"price_basic": "tier_1"})

	tier, err := f.svc.ResolveTier("price_basic")
	require.NoError(t, err)
	assert.Equal(t, entities.TierOne, tier)

	_, err = f.svc.ResolveTier("price_unknown")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
