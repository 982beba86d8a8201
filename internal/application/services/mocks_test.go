package services_test

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/providers"
)

// Shared mock collaborators for the service tests in this package.

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, tx *sql.Tx, order *entities.Order) (int64, error) {
	args := m.Called(ctx, tx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*entities.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, from, to entities.OrderStatus) error {
	args := m.Called(ctx, tx, id, from, to)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateCoding(ctx context.Context, tx *sql.Tx, id int64, cptCode string, icd10Codes []string, overridden bool, justification *string, signedBy *string) error {
	args := m.Called(ctx, tx, id, cptCode, icd10Codes, overridden, justification, signedBy)
	return args.Error(0)
}

func (m *MockOrderRepository) SetSupplementalText(ctx context.Context, tx *sql.Tx, id int64, text string) error {
	args := m.Called(ctx, tx, id, text)
	return args.Error(0)
}

func (m *MockOrderRepository) AssignRadiologyOrganization(ctx context.Context, tx *sql.Tx, id int64, organizationID string) error {
	args := m.Called(ctx, tx, id, organizationID)
	return args.Error(0)
}

type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) GetByID(ctx context.Context, id string) (*entities.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) GetByBillingCustomerID(ctx context.Context, customerID string) (*entities.Organization, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) DebitCredit(ctx context.Context, tx *sql.Tx, organizationID string, creditType entities.CreditType) (int, error) {
	args := m.Called(ctx, tx, organizationID, creditType)
	return args.Int(0), args.Error(1)
}

func (m *MockOrganizationRepository) SetBalancesForTier(ctx context.Context, tx *sql.Tx, organizationID string, tier entities.SubscriptionTier, allocation entities.TierAllocation) error {
	args := m.Called(ctx, tx, organizationID, tier, allocation)
	return args.Error(0)
}

func (m *MockOrganizationRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, organizationID string, status entities.OrganizationStatus) (bool, error) {
	args := m.Called(ctx, tx, organizationID, status)
	return args.Bool(0), args.Error(1)
}

type MockCreditUsageRepository struct {
	mock.Mock
}

func (m *MockCreditUsageRepository) Append(ctx context.Context, tx *sql.Tx, log *entities.CreditUsageLog) error {
	args := m.Called(ctx, tx, log)
	return args.Error(0)
}

func (m *MockCreditUsageRepository) ListByOrder(ctx context.Context, orderID int64) ([]*entities.CreditUsageLog, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CreditUsageLog), args.Error(1)
}

type MockBillingEventRepository struct {
	mock.Mock
}

func (m *MockBillingEventRepository) Append(ctx context.Context, tx *sql.Tx, event *entities.BillingEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

type MockOrderHistoryRepository struct {
	mock.Mock
}

func (m *MockOrderHistoryRepository) Append(ctx context.Context, tx *sql.Tx, event *entities.OrderHistoryEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

func (m *MockOrderHistoryRepository) ListByOrder(ctx context.Context, orderID int64) ([]*entities.OrderHistoryEvent, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.OrderHistoryEvent), args.Error(1)
}

type MockValidationAttemptRepository struct {
	mock.Mock
}

func (m *MockValidationAttemptRepository) Append(ctx context.Context, tx *sql.Tx, attempt *entities.ValidationAttempt) error {
	args := m.Called(ctx, tx, attempt)
	return args.Error(0)
}

func (m *MockValidationAttemptRepository) NextAttemptNumber(ctx context.Context, tx *sql.Tx, orderID int64) (int, error) {
	args := m.Called(ctx, tx, orderID)
	return args.Int(0), args.Error(1)
}

func (m *MockValidationAttemptRepository) ListByOrder(ctx context.Context, orderID int64) ([]*entities.ValidationAttempt, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ValidationAttempt), args.Error(1)
}

type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Patient), args.Error(1)
}

func (m *MockPatientRepository) ApplyUpdate(ctx context.Context, tx *sql.Tx, patientID string, update *entities.PatientUpdate) error {
	args := m.Called(ctx, tx, patientID, update)
	return args.Error(0)
}

func (m *MockPatientRepository) GetPrimaryInsurance(ctx context.Context, patientID string) (*entities.Insurance, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Insurance), args.Error(1)
}

func (m *MockPatientRepository) ApplyInsuranceUpdate(ctx context.Context, tx *sql.Tx, patientID string, update *entities.InsuranceUpdate) error {
	args := m.Called(ctx, tx, patientID, update)
	return args.Error(0)
}

type MockRelationshipRepository struct {
	mock.Mock
}

func (m *MockRelationshipRepository) UpdateStatusForOrganization(ctx context.Context, tx *sql.Tx, organizationID string, from, to entities.RelationshipStatus) (int64, error) {
	args := m.Called(ctx, tx, organizationID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRelationshipRepository) GetActiveBetween(ctx context.Context, referringID, radiologyID string) (*entities.OrganizationRelationship, error) {
	args := m.Called(ctx, referringID, radiologyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.OrganizationRelationship), args.Error(1)
}

type MockPurgatoryRepository struct {
	mock.Mock
}

func (m *MockPurgatoryRepository) Create(ctx context.Context, tx *sql.Tx, event *entities.PurgatoryEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

func (m *MockPurgatoryRepository) ResolveOpenByOrganization(ctx context.Context, tx *sql.Tx, organizationID string) (int64, error) {
	args := m.Called(ctx, tx, organizationID)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) ListAdminsByOrganization(ctx context.Context, organizationID string) ([]*entities.User, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

type MockValidationEngine struct {
	mock.Mock
}

func (m *MockValidationEngine) Validate(ctx context.Context, text string, vctx providers.ValidationContext) (*providers.ValidationVerdict, error) {
	args := m.Called(ctx, text, vctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.ValidationVerdict), args.Error(1)
}

type MockEMRParser struct {
	mock.Mock
}

func (m *MockEMRParser) Parse(ctx context.Context, text string) (*providers.ParsedEMRText, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.ParsedEMRText), args.Error(1)
}

type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) Send(ctx context.Context, email, subject, body string) error {
	args := m.Called(ctx, email, subject, body)
	return args.Error(0)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.OrderEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.OrderEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.OrderEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()
	return args.Error(0)
}
