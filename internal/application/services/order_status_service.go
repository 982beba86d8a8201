package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

// OrderStatusService owns order lifecycle transitions. It never opens its own
// transaction; every write runs inside the caller's unit of work so the
// status change, the audit row and any ledger debit commit together.
type OrderStatusService struct {
	orderRepo   repositories.OrderRepository
	historyRepo repositories.OrderHistoryRepository
	metrics     *observability.Metrics
}

// NewOrderStatusService creates a new order status service
func NewOrderStatusService(
	orderRepo repositories.OrderRepository,
	historyRepo repositories.OrderHistoryRepository,
) *OrderStatusService {
	return &OrderStatusService{
		orderRepo:   orderRepo,
		historyRepo: historyRepo,
	}
}

// SetMetrics wires the transition counter into the service
func (s *OrderStatusService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Transition moves an order along the forward status graph and appends one
// history row. An edge outside the graph is a programming error and returns
// an invalid-state error before touching the database.
func (s *OrderStatusService) Transition(ctx context.Context, tx *sql.Tx, orderID int64, from, to entities.OrderStatus, userID string, eventType entities.OrderHistoryEventType) error {
	if !entities.CanTransition(from, to) {
		return apperrors.NewInvalidStateError(
			fmt.Sprintf("transition %s -> %s is not allowed", from, to))
	}

	if err := s.orderRepo.UpdateStatus(ctx, tx, orderID, from, to); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.OrderTransitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", string(from)),
			attribute.String("to", string(to)),
		))
	}

	event := &entities.OrderHistoryEvent{
		ID:             uuid.New().String(),
		OrderID:        orderID,
		UserID:         userID,
		EventType:      eventType,
		PreviousStatus: &from,
		NewStatus:      &to,
		CreatedAt:      time.Now(),
	}
	return s.historyRepo.Append(ctx, tx, event)
}

// VerifyOrderStatus loads an order and asserts it is in the expected status.
// Absent order yields not-found; wrong status yields invalid-state.
func (s *OrderStatusService) VerifyOrderStatus(ctx context.Context, orderID int64, expected entities.OrderStatus) (*entities.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != expected {
		return nil, apperrors.NewInvalidStateError(
			fmt.Sprintf("order %d is in status %s, expected %s", orderID, order.Status, expected))
	}
	return order, nil
}

// RequestInformation records an information request against an active order
// without changing its status. Terminal orders reject the request. The
// order's current status is returned for the caller's event payload.
func (s *OrderStatusService) RequestInformation(ctx context.Context, tx *sql.Tx, orderID int64, userID, note string) (entities.OrderStatus, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if entities.IsTerminal(order.Status) {
		return "", apperrors.NewInvalidStateError(
			fmt.Sprintf("order %d is in terminal status %s", orderID, order.Status))
	}

	event := &entities.OrderHistoryEvent{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		UserID:    userID,
		EventType: entities.OrderEventInformationRequested,
		Note:      &note,
		CreatedAt: time.Now(),
	}
	if err := s.historyRepo.Append(ctx, tx, event); err != nil {
		return "", err
	}
	return order.Status, nil
}
