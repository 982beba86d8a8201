package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

// SubscriptionEvent is the normalized shape of a billing provider
// subscription webhook
type SubscriptionEvent struct {
	EventID    string
	CustomerID string
	Status     string
	PriceID    string
}

// ReconcileOutcome summarizes what a webhook event changed
type ReconcileOutcome struct {
	OrganizationID       string
	StatusChanged        bool
	EnteredPurgatory     bool
	LeftPurgatory        bool
	TierChanged          bool
	RelationshipsFlipped int64
}

// SubscriptionService reconciles billing provider subscription state onto
// organizations: active/purgatory flips, relationship suspension and tier
// credit replenishment. All database writes for one event commit in a single
// transaction; notifications go out after the commit. Reconciliation is
// idempotent at the target-state level: replaying an event whose target state
// already holds produces a no-op diff. Events are not deduplicated by id, so
// a replayed tier change replenishes again.
type SubscriptionService struct {
	client              *postgres.Client
	orgRepo             repositories.OrganizationRepository
	relationshipRepo    repositories.RelationshipRepository
	purgatoryRepo       repositories.PurgatoryRepository
	ledger              *CreditLedgerService
	notificationService *NotificationService
	priceTierMap        map[string]entities.SubscriptionTier
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	client *postgres.Client,
	orgRepo repositories.OrganizationRepository,
	relationshipRepo repositories.RelationshipRepository,
	purgatoryRepo repositories.PurgatoryRepository,
	ledger *CreditLedgerService,
	notificationService *NotificationService,
	priceTierMap map[string]string,
) *SubscriptionService {
	tiers := make(map[string]entities.SubscriptionTier, len(priceTierMap))
	for priceID, tier := range priceTierMap {
		tiers[priceID] = entities.SubscriptionTier(tier)
	}

	return &SubscriptionService{
		client:              client,
		orgRepo:             orgRepo,
		relationshipRepo:    relationshipRepo,
		purgatoryRepo:       purgatoryRepo,
		ledger:              ledger,
		notificationService: notificationService,
		priceTierMap:        tiers,
	}
}

// HandleSubscriptionUpdated reconciles one subscription event
func (s *SubscriptionService) HandleSubscriptionUpdated(ctx context.Context, event SubscriptionEvent) (*ReconcileOutcome, error) {
	logger := observability.LoggerFromContext(ctx)

	org, err := s.orgRepo.GetByBillingCustomerID(ctx, event.CustomerID)
	if err != nil {
		return nil, err
	}

	targetStatus, reason := targetStateFor(event.Status)
	targetTier, tierKnown := s.priceTierMap[event.PriceID]

	outcome := &ReconcileOutcome{OrganizationID: org.ID}

	err = s.client.WithinTx(ctx, func(tx *sql.Tx) error {
		changed, err := s.orgRepo.UpdateStatus(ctx, tx, org.ID, targetStatus)
		if err != nil {
			return err
		}
		outcome.StatusChanged = changed

		if changed && targetStatus == entities.OrganizationStatusPurgatory {
			outcome.EnteredPurgatory = true

			purgatoryEvent := &entities.PurgatoryEvent{
				ID:             uuid.New().String(),
				OrganizationID: org.ID,
				Reason:         reason,
				TriggeredBy:    event.EventID,
				Status:         entities.PurgatoryEventPending,
				CreatedAt:      time.Now(),
			}
			if err := s.purgatoryRepo.Create(ctx, tx, purgatoryEvent); err != nil {
				return err
			}

			flipped, err := s.relationshipRepo.UpdateStatusForOrganization(ctx, tx, org.ID,
				entities.RelationshipStatusActive, entities.RelationshipStatusPurgatory)
			if err != nil {
				return err
			}
			outcome.RelationshipsFlipped = flipped
		}

		if changed && targetStatus == entities.OrganizationStatusActive {
			outcome.LeftPurgatory = true

			if _, err := s.purgatoryRepo.ResolveOpenByOrganization(ctx, tx, org.ID); err != nil {
				return err
			}

			flipped, err := s.relationshipRepo.UpdateStatusForOrganization(ctx, tx, org.ID,
				entities.RelationshipStatusPurgatory, entities.RelationshipStatusActive)
			if err != nil {
				return err
			}
			outcome.RelationshipsFlipped = flipped
		}

		if tierKnown && targetTier != org.SubscriptionTier {
			if err := s.ledger.Replenish(ctx, tx, org.ID, targetTier); err != nil {
				return err
			}
			outcome.TierChanged = true
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if event.PriceID != "" && !tierKnown {
		logger.Warn().Str("price_id", event.PriceID).
			Str("organization_id", org.ID).
			Msg("subscription event carries unmapped price id")
	}

	s.sendNotifications(ctx, org, outcome, reason, targetTier)

	logger.Info().
		Str("organization_id", org.ID).
		Str("target_status", string(targetStatus)).
		Bool("status_changed", outcome.StatusChanged).
		Bool("tier_changed", outcome.TierChanged).
		Msg("subscription event reconciled")

	return outcome, nil
}

// sendNotifications runs after the commit; each is individually fault-tolerant
func (s *SubscriptionService) sendNotifications(ctx context.Context, org *entities.Organization, outcome *ReconcileOutcome, reason string, tier entities.SubscriptionTier) {
	if s.notificationService == nil {
		return
	}

	if outcome.EnteredPurgatory {
		s.notificationService.NotifyPurgatoryEntered(ctx, org, reason)
	}
	if outcome.LeftPurgatory {
		s.notificationService.NotifyPurgatoryResolved(ctx, org)
	}
	if outcome.TierChanged {
		if allocation, ok := entities.AllocationForTier(tier); ok {
			s.notificationService.NotifyTierChanged(ctx, org, tier, allocation)
		}
	}
}

// targetStateFor maps a provider subscription status onto the organization
// status and, for suspensions, the purgatory reason
func targetStateFor(subscriptionStatus string) (entities.OrganizationStatus, string) {
	switch subscriptionStatus {
	case "active", "trialing":
		return entities.OrganizationStatusActive, ""
	case "canceled":
		return entities.OrganizationStatusPurgatory, entities.PurgatoryReasonSubscriptionCanceled
	default:
		// unpaid, past_due and anything else unrecognized suspend the org
		return entities.OrganizationStatusPurgatory, entities.PurgatoryReasonPaymentFailed
	}
}

// ResolveTier exposes the price-id mapping for boundary validation
func (s *SubscriptionService) ResolveTier(priceID string) (entities.SubscriptionTier, error) {
	tier, ok := s.priceTierMap[priceID]
	if !ok {
		return "", apperrors.NewValidationError("unknown price id: " + priceID)
	}
	return tier, nil
}
