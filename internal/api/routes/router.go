package routes

import (
	"net/http"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/api/handlers"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/api/middleware"
)

// Router holds all route handlers

type Router struct {
	mux *http.ServeMux

	orderHandler *handlers.OrderHandler

	organizationHandler *handlers.OrganizationHandler

	billingWebhookHandler *handlers.BillingWebhookHandler
}

// NewRouter creates a new router

func NewRouter(
	orderHandler *handlers.OrderHandler,
	organizationHandler *handlers.OrganizationHandler,
	billingWebhookHandler *handlers.BillingWebhookHandler,
) *Router {

	return &Router{
		mux: http.NewServeMux(),

		orderHandler: orderHandler,

		organizationHandler: organizationHandler,

		billingWebhookHandler: billingWebhookHandler,
	}

}

// SetupRoutes configures all application routes

func (r *Router) SetupRoutes() http.Handler {

	// Health check endpoint

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {

		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}

	})

	// Order endpoints

	r.mux.HandleFunc("POST /api/orders/validate", r.orderHandler.ValidateOrder)

	r.mux.HandleFunc("GET /api/orders/{id}", r.orderHandler.GetOrder)

	r.mux.HandleFunc("GET /api/orders/{id}/history", r.orderHandler.GetOrderHistory)

	r.mux.HandleFunc("GET /api/orders/{id}/attempts", r.orderHandler.GetValidationAttempts)

	r.mux.HandleFunc("GET /api/orders/{id}/usage", r.organizationHandler.GetOrderUsage)

	// Admin finalization endpoints

	r.mux.HandleFunc("POST /api/orders/{id}/supplemental", r.orderHandler.IngestSupplementalText)

	r.mux.HandleFunc("POST /api/orders/{id}/send", r.orderHandler.SendToRadiology)

	r.mux.HandleFunc("POST /api/orders/{id}/request-info", r.orderHandler.RequestInformation)

	// Organization endpoints

	r.mux.HandleFunc("GET /api/organizations/{id}", r.organizationHandler.GetOrganization)

	// Billing webhook endpoint for subscription reconciliation
	if r.billingWebhookHandler != nil {
		r.mux.HandleFunc("POST /webhooks/billing", r.billingWebhookHandler.HandleWebhook)
	}

	// Apply middleware in reverse order (last middleware wraps first)

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	handler = middleware.ObservabilityMiddleware(handler)

	// CORS wraps everything so headers are set on every response
	handler = middleware.CORSMiddleware(handler)

	return handler
}
