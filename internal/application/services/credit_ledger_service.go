package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/utils"
)

// advancedModalities is the modality set billed against the advanced balance
var advancedModalities = map[string]struct{}{
	"MRI": {},
	"MRA": {},
	"CT":  {},
	"CTA": {},
	"PET": {},
	"NM":  {},
}

// basicModalities is the modality set billed against the basic balance. A
// modality found in either set decides the classification outright; the CPT
// prefix fallback applies only to unrecognized modalities.
var basicModalities = map[string]struct{}{
	"X-RAY":       {},
	"US":          {},
	"MAMMOGRAPHY": {},
	"DXA":         {},
	"FLUOROSCOPY": {},
}

// advancedCPTPrefixes is the CPT numeric-prefix fallback for advanced imaging
var advancedCPTPrefixes = []string{"705", "707", "74", "75", "78"}

// DebitParams identifies a single credit debit
type DebitParams struct {
	OrganizationID string
	UserID         string
	OrderID        int64
	ActionType     entities.CreditActionType
	CreditType     entities.CreditType
}

// CreditLedgerService owns the per-organization credit balances. Every debit
// is a single conditional UPDATE plus one immutable usage-log row, committed
// in the caller's transaction. Test mode is injected at construction time and
// short-circuits debits to a no-op success.
type CreditLedgerService struct {
	orgRepo          repositories.OrganizationRepository
	usageRepo        repositories.CreditUsageRepository
	billingEventRepo repositories.BillingEventRepository
	testMode         bool
	metrics          *observability.Metrics
}

// NewCreditLedgerService creates a new credit ledger service
func NewCreditLedgerService(
	orgRepo repositories.OrganizationRepository,
	usageRepo repositories.CreditUsageRepository,
	billingEventRepo repositories.BillingEventRepository,
	testMode bool,
) *CreditLedgerService {
	return &CreditLedgerService{
		orgRepo:          orgRepo,
		usageRepo:        usageRepo,
		billingEventRepo: billingEventRepo,
		testMode:         testMode,
	}
}

// SetMetrics wires debit counters into the ledger
func (s *CreditLedgerService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// TestMode reports whether the billing bypass is active
func (s *CreditLedgerService) TestMode() bool {
	return s.testMode
}

// HasCredit is an advisory read. It never substitutes for the conditional
// debit; concurrent consumers can exhaust the balance between this check and
// a later Debit.
func (s *CreditLedgerService) HasCredit(ctx context.Context, organizationID string, creditType entities.CreditType) (bool, error) {
	if s.testMode {
		return true, nil
	}

	org, err := s.orgRepo.GetByID(ctx, organizationID)
	if err != nil {
		return false, err
	}

	switch creditType {
	case entities.CreditTypeReferring:
		return org.CreditBalance > 0, nil
	case entities.CreditTypeRadiologyBasic:
		return org.BasicCreditBalance > 0, nil
	case entities.CreditTypeRadiologyAdvanced:
		return org.AdvancedCreditBalance > 0, nil
	default:
		return false, apperrors.NewInternalError("unknown credit type", nil)
	}
}

// Debit consumes one credit inside the caller's transaction. The balance
// check and decrement are one conditional UPDATE; on success exactly one
// usage-log row is appended in the same transaction. An exhausted balance
// returns an insufficient-credits error carrying the order id and writes
// nothing.
func (s *CreditLedgerService) Debit(ctx context.Context, tx *sql.Tx, params DebitParams) (int, error) {
	if s.testMode {
		return 0, nil
	}

	newBalance, err := s.orgRepo.DebitCredit(ctx, tx, params.OrganizationID, params.CreditType)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeInsufficientCredits) {
			if s.metrics != nil {
				s.metrics.CreditRejections.Add(ctx, 1)
			}
			if appErr, ok := err.(*apperrors.AppError); ok {
				return 0, apperrors.NewInsufficientCreditsError(appErr.Message, params.OrderID)
			}
		}
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.CreditDebits.Add(ctx, 1)
	}

	log := &entities.CreditUsageLog{
		ID:             uuid.New().String(),
		OrganizationID: params.OrganizationID,
		UserID:         params.UserID,
		OrderID:        params.OrderID,
		TokensBurned:   1,
		ActionType:     params.ActionType,
		CreditType:     params.CreditType,
		CreatedAt:      time.Now(),
	}
	if err := s.usageRepo.Append(ctx, tx, log); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// Replenish sets the organization's balances to the tier's fixed allocation
// and appends one billing event row. Balances are overwritten, never added to.
// Called only by the subscription reconciler inside its transaction.
func (s *CreditLedgerService) Replenish(ctx context.Context, tx *sql.Tx, organizationID string, tier entities.SubscriptionTier) error {
	allocation, ok := entities.AllocationForTier(tier)
	if !ok {
		return apperrors.NewValidationError("unknown subscription tier: " + string(tier))
	}

	if err := s.orgRepo.SetBalancesForTier(ctx, tx, organizationID, tier, allocation); err != nil {
		return err
	}

	event := &entities.BillingEvent{
		ID:             uuid.New().String(),
		OrganizationID: organizationID,
		EventType:      entities.BillingEventReplenishment,
		Tier:           tier,
		CreditsGranted: allocation.ReferringCredits + allocation.BasicCredits + allocation.AdvancedCredits,
		CreatedAt:      time.Now(),
	}
	return s.billingEventRepo.Append(ctx, tx, event)
}

// ClassifyImaging decides whether an order bills against the basic or
// advanced balance. A recognized modality decides outright; the CPT prefix
// fallback applies only when the modality is unknown. Deterministic for a
// given input.
func (s *CreditLedgerService) ClassifyImaging(modality, cptCode string) entities.ImagingClass {
	normalized := utils.NormalizeModality(modality)

	if _, ok := advancedModalities[normalized]; ok {
		return entities.ImagingClassAdvanced
	}
	if _, ok := basicModalities[normalized]; ok {
		return entities.ImagingClassBasic
	}

	for _, prefix := range advancedCPTPrefixes {
		if strings.HasPrefix(cptCode, prefix) {
			return entities.ImagingClassAdvanced
		}
	}
	return entities.ImagingClassBasic
}

// CreditTypeFor maps an organization and imaging class onto the balance the
// debit targets
func (s *CreditLedgerService) CreditTypeFor(orgType entities.OrganizationType, class entities.ImagingClass) entities.CreditType {
	if orgType == entities.OrganizationTypeReferring {
		return entities.CreditTypeReferring
	}
	if class == entities.ImagingClassAdvanced {
		return entities.CreditTypeRadiologyAdvanced
	}
	return entities.CreditTypeRadiologyBasic
}
