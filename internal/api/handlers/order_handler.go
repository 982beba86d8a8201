package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/application/services"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	validationService *services.ValidationService
	adminService      *services.AdminOrderService
	orderRepo         repositories.OrderRepository
	historyRepo       repositories.OrderHistoryRepository
	attemptRepo       repositories.ValidationAttemptRepository
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(
	validationService *services.ValidationService,
	adminService *services.AdminOrderService,
	orderRepo repositories.OrderRepository,
	historyRepo repositories.OrderHistoryRepository,
	attemptRepo repositories.ValidationAttemptRepository,
) *OrderHandler {
	return &OrderHandler{
		validationService: validationService,
		adminService:      adminService,
		orderRepo:         orderRepo,
		historyRepo:       historyRepo,
		attemptRepo:       attemptRepo,
	}
}

type validateOrderRequest struct {
	OrderID               int64                  `json:"order_id,omitempty"`
	OrganizationID        string                 `json:"organization_id"`
	UserID                string                 `json:"user_id"`
	PatientID             string                 `json:"patient_id,omitempty"`
	Modality              string                 `json:"modality"`
	Priority              entities.OrderPriority `json:"priority,omitempty"`
	Text                  string                 `json:"text"`
	IsOverride            bool                   `json:"is_override,omitempty"`
	OverrideJustification string                 `json:"override_justification,omitempty"`
}

// ValidateOrder handles POST /api/orders/validate
func (h *OrderHandler) ValidateOrder(w http.ResponseWriter, r *http.Request) {
	var req validateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrganizationID == "" || req.UserID == "" || req.Text == "" {
		respondWithError(w, http.StatusBadRequest, "organization_id, user_id and text are required")
		return
	}
	if req.IsOverride && req.OverrideJustification == "" {
		respondWithError(w, http.StatusBadRequest, "override_justification is required for an override")
		return
	}

	result, err := h.validationService.SubmitValidation(r.Context(), services.ValidationRequest{
		OrderID:               req.OrderID,
		OrganizationID:        req.OrganizationID,
		UserID:                req.UserID,
		PatientID:             req.PatientID,
		Modality:              req.Modality,
		Priority:              req.Priority,
		Text:                  req.Text,
		IsOverride:            req.IsOverride,
		OverrideJustification: req.OverrideJustification,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.orderRepo.GetByID(r.Context(), orderID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, order)
}

// GetOrderHistory handles GET /api/orders/{id}/history
func (h *OrderHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	events, err := h.historyRepo.ListByOrder(r.Context(), orderID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"order_id": orderID,
		"events":   events,
		"count":    len(events),
	})
}

// GetValidationAttempts handles GET /api/orders/{id}/attempts
func (h *OrderHandler) GetValidationAttempts(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	attempts, err := h.attemptRepo.ListByOrder(r.Context(), orderID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"order_id": orderID,
		"attempts": attempts,
		"count":    len(attempts),
	})
}

type supplementalTextRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// IngestSupplementalText handles POST /api/orders/{id}/supplemental
func (h *OrderHandler) IngestSupplementalText(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req supplementalTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.adminService.IngestSupplementalText(r.Context(), orderID, req.UserID, req.Text); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ingested"})
}

type sendToRadiologyRequest struct {
	UserID                  string `json:"user_id"`
	RadiologyOrganizationID string `json:"radiology_organization_id,omitempty"`
}

// SendToRadiology handles POST /api/orders/{id}/send
func (h *OrderHandler) SendToRadiology(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req sendToRadiologyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.adminService.SendToRadiology(r.Context(), orderID, req.RadiologyOrganizationID, req.UserID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"order_id": orderID,
		"status":   entities.OrderStatusPendingRadiology,
	})
}

type requestInformationRequest struct {
	UserID string `json:"user_id"`
	Note   string `json:"note"`
}

// RequestInformation handles POST /api/orders/{id}/request-info
func (h *OrderHandler) RequestInformation(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req requestInformationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Note == "" {
		respondWithError(w, http.StatusBadRequest, "user_id and note are required")
		return
	}

	if err := h.adminService.RequestInformation(r.Context(), orderID, req.UserID, req.Note); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	orderID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || orderID <= 0 {
		respondWithError(w, http.StatusBadRequest, "order ID must be a positive integer")
		return 0, false
	}
	return orderID, true
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps the error taxonomy onto HTTP statuses. Mapping is
// exhaustive on the error type, never on message contents.
func respondWithAppError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, appErr.Message)
	case apperrors.ErrorTypeValidation:
		payload := map[string]interface{}{"error": appErr.Message}
		if len(appErr.MissingFields) > 0 {
			payload["missing_fields"] = appErr.MissingFields
		}
		respondWithJSON(w, http.StatusBadRequest, payload)
	case apperrors.ErrorTypeUnauthorized:
		respondWithError(w, http.StatusForbidden, appErr.Message)
	case apperrors.ErrorTypeConflict:
		respondWithError(w, http.StatusConflict, appErr.Message)
	case apperrors.ErrorTypeInvalidState:
		respondWithError(w, http.StatusConflict, appErr.Message)
	case apperrors.ErrorTypeInsufficientCredits:
		respondWithJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error":    appErr.Message,
			"order_id": appErr.OrderID,
			"guidance": "Upgrade your subscription or wait for the next billing cycle, then retry with the same order id.",
		})
	case apperrors.ErrorTypeExternal:
		respondWithError(w, http.StatusBadGateway, appErr.Message)
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
