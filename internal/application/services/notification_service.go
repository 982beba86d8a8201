package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/providers"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/observability"
)

// NotificationService sends organization-admin notifications and records each
// delivery attempt. Every recipient is handled independently: one failed send
// is recorded and logged, and never stops the remaining recipients or the
// workflow that triggered the notification.
type NotificationService struct {
	db       *sqlx.DB
	sender   providers.NotificationSender
	userRepo repositories.UserRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *sqlx.DB, sender providers.NotificationSender, userRepo repositories.UserRepository) *NotificationService {
	return &NotificationService{
		db:       db,
		sender:   sender,
		userRepo: userRepo,
	}
}

// NotifyInsufficientCredits tells the organization's admins a debit was
// rejected and how to restore service
func (n *NotificationService) NotifyInsufficientCredits(ctx context.Context, org *entities.Organization, creditType entities.CreditType, orderID int64) {
	subject := fmt.Sprintf("Action required: %s has run out of credits", org.Name)
	body := fmt.Sprintf(
		"Order %d could not be processed because %s has no %s remaining.\n\n"+
			"Upgrade your subscription or wait for the next billing cycle to continue processing orders.",
		orderID, org.Name, creditType)

	n.notifyAdmins(ctx, org, entities.NotificationInsufficientCredits, subject, body)
}

// NotifyPurgatoryEntered tells admins their organization was suspended
func (n *NotificationService) NotifyPurgatoryEntered(ctx context.Context, org *entities.Organization, reason string) {
	subject := fmt.Sprintf("%s has been suspended", org.Name)
	body := fmt.Sprintf(
		"%s was suspended (%s). Order routing to and from your organization is paused "+
			"until billing is resolved. Update your payment details to restore service.",
		org.Name, reason)

	n.notifyAdmins(ctx, org, entities.NotificationPurgatoryEntered, subject, body)
}

// NotifyPurgatoryResolved tells admins their organization was reactivated
func (n *NotificationService) NotifyPurgatoryResolved(ctx context.Context, org *entities.Organization) {
	subject := fmt.Sprintf("%s has been reactivated", org.Name)
	body := fmt.Sprintf("%s is active again. Order routing has been restored.", org.Name)

	n.notifyAdmins(ctx, org, entities.NotificationPurgatoryResolved, subject, body)
}

// NotifyTierChanged tells admins about a tier change and the new allocation
func (n *NotificationService) NotifyTierChanged(ctx context.Context, org *entities.Organization, tier entities.SubscriptionTier, allocation entities.TierAllocation) {
	subject := fmt.Sprintf("%s subscription updated to %s", org.Name, tier)
	body := fmt.Sprintf(
		"Your subscription is now %s. Credit balances have been set to: "+
			"%d referring, %d basic imaging, %d advanced imaging.",
		tier, allocation.ReferringCredits, allocation.BasicCredits, allocation.AdvancedCredits)

	n.notifyAdmins(ctx, org, entities.NotificationTierChanged, subject, body)
}

// notifyAdmins fans a message out to every admin of the organization
func (n *NotificationService) notifyAdmins(ctx context.Context, org *entities.Organization, notifType entities.NotificationType, subject, body string) {
	logger := observability.LoggerFromContext(ctx)

	admins, err := n.userRepo.ListAdminsByOrganization(ctx, org.ID)
	if err != nil {
		logger.Error().Err(err).Str("organization_id", org.ID).
			Msg("failed to list admins for notification")
		return
	}
	if len(admins) == 0 {
		logger.Warn().Str("organization_id", org.ID).
			Str("notification_type", string(notifType)).
			Msg("organization has no admins to notify")
		return
	}

	for _, admin := range admins {
		n.sendToRecipient(ctx, org.ID, notifType, admin.Email, subject, body)
	}
}

// sendToRecipient records and delivers one notification. Failures are stored
// on the row and logged.
func (n *NotificationService) sendToRecipient(ctx context.Context, organizationID string, notifType entities.NotificationType, email, subject, body string) {
	logger := observability.LoggerFromContext(ctx)

	notification := &entities.OrganizationNotification{
		ID:               uuid.New().String(),
		OrganizationID:   organizationID,
		NotificationType: notifType,
		Recipient:        email,
		Subject:          subject,
		Status:           entities.NotificationStatusPending,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := n.createNotification(ctx, notification); err != nil {
		logger.Error().Err(err).Str("recipient", email).
			Msg("failed to create notification record")
		return
	}

	sendErr := n.sender.Send(ctx, email, subject, body)

	now := time.Now()
	if sendErr != nil {
		errMsg := sendErr.Error()
		notification.Status = entities.NotificationStatusFailed
		notification.FailedAt = &now
		notification.ErrorMessage = &errMsg
		logger.Warn().Err(sendErr).Str("recipient", email).
			Str("notification_type", string(notifType)).
			Msg("failed to send notification")
	} else {
		notification.Status = entities.NotificationStatusSent
		notification.SentAt = &now
	}
	notification.UpdatedAt = now

	if err := n.updateNotification(ctx, notification); err != nil {
		logger.Error().Err(err).Str("recipient", email).
			Msg("failed to update notification record")
	}
}

// Database operations
func (n *NotificationService) createNotification(ctx context.Context, notification *entities.OrganizationNotification) error {
	query := `
		INSERT INTO organization_notifications
		(id, organization_id, notification_type, recipient, subject, status,
		 sent_at, failed_at, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := n.db.ExecContext(ctx, query,
		notification.ID, notification.OrganizationID, notification.NotificationType,
		notification.Recipient, notification.Subject, notification.Status,
		notification.SentAt, notification.FailedAt, notification.ErrorMessage,
		notification.CreatedAt, notification.UpdatedAt,
	)
	return err
}

func (n *NotificationService) updateNotification(ctx context.Context, notification *entities.OrganizationNotification) error {
	query := `
		UPDATE organization_notifications
		SET status = $1, sent_at = $2, failed_at = $3, error_message = $4, updated_at = $5
		WHERE id = $6
	`
	_, err := n.db.ExecContext(ctx, query,
		notification.Status, notification.SentAt, notification.FailedAt,
		notification.ErrorMessage, notification.UpdatedAt, notification.ID,
	)
	return err
}
