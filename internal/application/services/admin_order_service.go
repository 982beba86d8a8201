package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/providers"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

// AdminOrderService handles the admin finalization workflow: supplemental EMR
// text ingestion and sending a finalized order to its radiology group.
type AdminOrderService struct {
	client              *postgres.Client
	orderRepo           repositories.OrderRepository
	orgRepo             repositories.OrganizationRepository
	patientRepo         repositories.PatientRepository
	relationshipRepo    repositories.RelationshipRepository
	ledger              *CreditLedgerService
	statusService       *OrderStatusService
	parser              providers.EMRParser
	eventBus            providers.EventBus
	notificationService *NotificationService
}

// NewAdminOrderService creates a new admin order service
func NewAdminOrderService(
	client *postgres.Client,
	orderRepo repositories.OrderRepository,
	orgRepo repositories.OrganizationRepository,
	patientRepo repositories.PatientRepository,
	relationshipRepo repositories.RelationshipRepository,
	ledger *CreditLedgerService,
	statusService *OrderStatusService,
	parser providers.EMRParser,
	eventBus providers.EventBus,
	notificationService *NotificationService,
) *AdminOrderService {
	return &AdminOrderService{
		client:              client,
		orderRepo:           orderRepo,
		orgRepo:             orgRepo,
		patientRepo:         patientRepo,
		relationshipRepo:    relationshipRepo,
		ledger:              ledger,
		statusService:       statusService,
		parser:              parser,
		eventBus:            eventBus,
		notificationService: notificationService,
	}
}

// IngestSupplementalText stores pasted EMR text verbatim, then parses it and
// applies only the fields the parser returned. The raw text commits before
// the parser runs, so a parser failure never loses the paste.
func (s *AdminOrderService) IngestSupplementalText(ctx context.Context, orderID int64, userID, text string) error {
	if text == "" {
		return apperrors.NewValidationError("supplemental text must not be empty")
	}

	order, err := s.statusService.VerifyOrderStatus(ctx, orderID, entities.OrderStatusPendingAdmin)
	if err != nil {
		return err
	}

	err = s.client.WithinTx(ctx, func(tx *sql.Tx) error {
		return s.orderRepo.SetSupplementalText(ctx, tx, orderID, text)
	})
	if err != nil {
		return err
	}

	parsed, err := s.parser.Parse(ctx, text)
	if err != nil {
		return apperrors.NewExternalError("failed to parse supplemental text", err)
	}

	return s.client.WithinTx(ctx, func(tx *sql.Tx) error {
		if parsed.PatientInfo != nil {
			if err := s.patientRepo.ApplyUpdate(ctx, tx, order.PatientID, parsed.PatientInfo); err != nil {
				return err
			}
		}
		if parsed.InsuranceInfo != nil {
			if err := s.patientRepo.ApplyInsuranceUpdate(ctx, tx, order.PatientID, parsed.InsuranceInfo); err != nil {
				return err
			}
		}
		return nil
	})
}

// RequestInformation records an information request against an order
func (s *AdminOrderService) RequestInformation(ctx context.Context, orderID int64, userID, note string) error {
	var status entities.OrderStatus
	err := s.client.WithinTx(ctx, func(tx *sql.Tx) error {
		current, err := s.statusService.RequestInformation(ctx, tx, orderID, userID, note)
		if err != nil {
			return err
		}
		status = current
		return nil
	})
	if err != nil {
		return err
	}

	s.publishOrderEvent(ctx, orderID, entities.OrderEventTypeInformationRequested, status, status)
	return nil
}

// SendToRadiology finalizes an order and routes it to the radiology group.
// The referring debit and the transition commit as one transaction; the
// radiology-side debit is a separate transaction afterwards, and its failure
// is recorded but never unwinds the already committed submission.
func (s *AdminOrderService) SendToRadiology(ctx context.Context, orderID int64, radiologyOrgID, userID string) error {
	logger := observability.LoggerFromContext(ctx)

	order, err := s.statusService.VerifyOrderStatus(ctx, orderID, entities.OrderStatusPendingAdmin)
	if err != nil {
		return err
	}

	if radiologyOrgID == "" {
		if order.RadiologyOrganizationID == nil {
			return apperrors.NewValidationError("order has no radiology organization assigned")
		}
		radiologyOrgID = *order.RadiologyOrganizationID
	}

	if err := s.checkRequiredFields(ctx, order); err != nil {
		return err
	}

	referringOrg, err := s.orgRepo.GetByID(ctx, order.ReferringOrganizationID)
	if err != nil {
		return err
	}
	radiologyOrg, err := s.orgRepo.GetByID(ctx, radiologyOrgID)
	if err != nil {
		return err
	}

	if referringOrg.Status != entities.OrganizationStatusActive {
		return apperrors.NewConflictError(
			fmt.Sprintf("referring organization %s is not active", referringOrg.ID))
	}
	if radiologyOrg.Status != entities.OrganizationStatusActive {
		return apperrors.NewConflictError(
			fmt.Sprintf("radiology organization %s is not active", radiologyOrg.ID))
	}

	if _, err := s.relationshipRepo.GetActiveBetween(ctx, referringOrg.ID, radiologyOrg.ID); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return apperrors.NewConflictError("organizations have no active relationship")
		}
		return err
	}

	// Referring debit + assignment + transition commit together.
	err = s.client.WithinTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.ledger.Debit(ctx, tx, DebitParams{
			OrganizationID: referringOrg.ID,
			UserID:         userID,
			OrderID:        orderID,
			ActionType:     entities.ActionOrderSubmitted,
			CreditType:     entities.CreditTypeReferring,
		}); err != nil {
			return err
		}

		if order.RadiologyOrganizationID == nil || *order.RadiologyOrganizationID != radiologyOrgID {
			if err := s.orderRepo.AssignRadiologyOrganization(ctx, tx, orderID, radiologyOrgID); err != nil {
				return err
			}
		}

		return s.statusService.Transition(ctx, tx, orderID,
			entities.OrderStatusPendingAdmin, entities.OrderStatusPendingRadiology,
			userID, entities.OrderEventSentToRadiology)
	})
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeInsufficientCredits) {
			s.notificationService.NotifyInsufficientCredits(ctx, referringOrg, entities.CreditTypeReferring, orderID)
		}
		return err
	}

	s.publishOrderEvent(ctx, orderID, entities.OrderEventTypeSentToRadiology,
		entities.OrderStatusPendingAdmin, entities.OrderStatusPendingRadiology)

	// Radiology-side debit in its own transaction. The submission above is
	// already committed; a failure here is recorded, not unwound.
	class := s.ledger.ClassifyImaging(order.Modality, order.FinalCPTCode)
	creditType := s.ledger.CreditTypeFor(radiologyOrg.Type, class)

	err = s.client.WithinTx(ctx, func(tx *sql.Tx) error {
		_, err := s.ledger.Debit(ctx, tx, DebitParams{
			OrganizationID: radiologyOrg.ID,
			UserID:         userID,
			OrderID:        orderID,
			ActionType:     entities.ActionOrderReceived,
			CreditType:     creditType,
		})
		return err
	})
	if err != nil {
		logger.Warn().Err(err).
			Int64("order_id", orderID).
			Str("radiology_organization_id", radiologyOrg.ID).
			Str("credit_type", string(creditType)).
			Msg("radiology-side debit failed after submission committed")
		if apperrors.IsType(err, apperrors.ErrorTypeInsufficientCredits) {
			s.notificationService.NotifyInsufficientCredits(ctx, radiologyOrg, creditType, orderID)
		}
	}

	return nil
}

// checkRequiredFields aggregates every missing submission prerequisite into
// one validation error instead of reporting them one at a time
func (s *AdminOrderService) checkRequiredFields(ctx context.Context, order *entities.Order) error {
	var missing []string

	if order.FinalCPTCode == "" {
		missing = append(missing, "final_cpt_code")
	}
	if len(order.FinalICD10Codes) == 0 {
		missing = append(missing, "final_icd10_codes")
	}

	patient, err := s.patientRepo.GetByID(ctx, order.PatientID)
	if err != nil {
		return err
	}
	if patient.FirstName == "" {
		missing = append(missing, "patient.first_name")
	}
	if patient.LastName == "" {
		missing = append(missing, "patient.last_name")
	}
	if patient.DateOfBirth == nil {
		missing = append(missing, "patient.date_of_birth")
	}
	if patient.Gender == "" {
		missing = append(missing, "patient.gender")
	}
	if patient.Phone == "" {
		missing = append(missing, "patient.phone")
	}
	if patient.AddressLine1 == "" {
		missing = append(missing, "patient.address_line1")
	}
	if patient.City == "" {
		missing = append(missing, "patient.city")
	}
	if patient.State == "" {
		missing = append(missing, "patient.state")
	}
	if patient.ZipCode == "" {
		missing = append(missing, "patient.zip_code")
	}

	insurance, err := s.patientRepo.GetPrimaryInsurance(ctx, order.PatientID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			missing = append(missing, "insurance.primary")
		} else {
			return err
		}
	} else {
		if insurance.InsurerName == "" {
			missing = append(missing, "insurance.insurer_name")
		}
		if insurance.PolicyNumber == "" {
			missing = append(missing, "insurance.policy_number")
		}
		if insurance.PolicyHolderName == "" {
			missing = append(missing, "insurance.policy_holder_name")
		}
	}

	if len(missing) > 0 {
		return apperrors.NewMissingFieldsError("order is missing required fields", missing)
	}
	return nil
}

func (s *AdminOrderService) publishOrderEvent(ctx context.Context, orderID int64, eventType entities.OrderEventType, prev, next entities.OrderStatus) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewOrderEvent(orderID, eventType, prev, next)
	for _, channel := range []string{providers.EventChannelOrderUpdates, providers.GetOrderChannel(orderID)} {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Int64("order_id", orderID).
				Str("channel", channel).
				Msg("failed to publish order event")
		}
	}
}
