package handlers

import (
	"net/http"
	"strconv"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
)

// OrganizationHandler handles organization-related HTTP requests
type OrganizationHandler struct {
	orgRepo   repositories.OrganizationRepository
	usageRepo repositories.CreditUsageRepository
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(orgRepo repositories.OrganizationRepository, usageRepo repositories.CreditUsageRepository) *OrganizationHandler {
	return &OrganizationHandler{
		orgRepo:   orgRepo,
		usageRepo: usageRepo,
	}
}

// GetOrganization handles GET /api/organizations/{id}. Balances here are
// advisory reads and may lag a concurrent debit.
func (h *OrganizationHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	organizationID := r.PathValue("id")
	if organizationID == "" {
		respondWithError(w, http.StatusBadRequest, "organization ID is required")
		return
	}

	org, err := h.orgRepo.GetByID(r.Context(), organizationID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, org)
}

// GetOrderUsage handles GET /api/orders/{id}/usage
func (h *OrganizationHandler) GetOrderUsage(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	orderID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || orderID <= 0 {
		respondWithError(w, http.StatusBadRequest, "order ID must be a positive integer")
		return
	}

	logs, err := h.usageRepo.ListByOrder(r.Context(), orderID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"order_id": orderID,
		"usage":    logs,
		"count":    len(logs),
	})
}
