package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/application/services"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/observability"
)

// BillingWebhookHandler handles billing provider subscription webhooks.
// Events are stored for audit but deliberately not deduplicated by event id:
// reconciliation is idempotent at the target-state level, so a replayed
// status event is a no-op diff. A replayed tier change replenishes again.
type BillingWebhookHandler struct {
	db                  *sqlx.DB
	subscriptionService *services.SubscriptionService
	signingSecret       string
	metrics             *observability.Metrics
}

// NewBillingWebhookHandler creates a new billing webhook handler
func NewBillingWebhookHandler(db *sqlx.DB, subscriptionService *services.SubscriptionService, signingSecret string, metrics *observability.Metrics) *BillingWebhookHandler {
	return &BillingWebhookHandler{
		db:                  db,
		subscriptionService: subscriptionService,
		signingSecret:       signingSecret,
		metrics:             metrics,
	}
}

// billingWebhookEvent is the incoming provider event envelope
type billingWebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			Customer string `json:"customer"`
			Status   string `json:"status"`
			Items    struct {
				Data []struct {
					Price struct {
						ID string `json:"id"`
					} `json:"price"`
				} `json:"data"`
			} `json:"items"`
		} `json:"object"`
	} `json:"data"`
}

// HandleWebhook processes incoming billing webhooks
func (h *BillingWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if h.signingSecret != "" {
		if !h.verifySignature(r.Header.Get("Billing-Signature"), body) {
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	var event billingWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	eventID := event.ID
	if eventID == "" {
		eventID = uuid.New().String()
	}

	if err := h.storeWebhookEvent(ctx, eventID, event.Type, body); err != nil {
		logger.Warn().Err(err).Str("event_id", eventID).Msg("failed to store webhook event")
	}

	if h.metrics != nil {
		h.metrics.WebhookEvents.Add(ctx, 1, metric.WithAttributes(
			attribute.String("event_type", event.Type),
		))
	}

	switch event.Type {
	case "customer.subscription.updated", "customer.subscription.deleted":
		priceID := ""
		if len(event.Data.Object.Items.Data) > 0 {
			priceID = event.Data.Object.Items.Data[0].Price.ID
		}
		status := event.Data.Object.Status
		if event.Type == "customer.subscription.deleted" {
			status = "canceled"
		}

		_, err := h.subscriptionService.HandleSubscriptionUpdated(ctx, services.SubscriptionEvent{
			EventID:    eventID,
			CustomerID: event.Data.Object.Customer,
			Status:     status,
			PriceID:    priceID,
		})
		if err != nil {
			h.markEventFailed(ctx, eventID, err)
			respondWithAppError(w, err)
			return
		}
	default:
		logger.Info().Str("event_type", event.Type).Msg("ignoring unhandled billing event type")
	}

	h.markEventProcessed(ctx, eventID)

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

// verifySignature checks the HMAC-SHA256 signature over the raw body
func (h *BillingWebhookHandler) verifySignature(signature string, body []byte) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.signingSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

// Database operations
func (h *BillingWebhookHandler) storeWebhookEvent(ctx context.Context, eventID, eventType string, payload []byte) error {
	query := `
		INSERT INTO webhook_events (id, provider, event_type, payload, processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider, id) DO NOTHING
	`
	_, err := h.db.ExecContext(ctx, query, eventID, "billing", eventType, payload, false, time.Now())
	return err
}

func (h *BillingWebhookHandler) markEventProcessed(ctx context.Context, eventID string) {
	query := `UPDATE webhook_events SET processed = true, processed_at = $1 WHERE id = $2 AND provider = 'billing'`
	if _, err := h.db.ExecContext(ctx, query, time.Now(), eventID); err != nil {
		observability.GetLogger().Warn().Err(err).Str("event_id", eventID).Msg("failed to mark webhook event processed")
	}
}

func (h *BillingWebhookHandler) markEventFailed(ctx context.Context, eventID string, failure error) {
	errMsg := failure.Error()
	query := `UPDATE webhook_events SET error_message = $1 WHERE id = $2 AND provider = 'billing'`
	if _, err := h.db.ExecContext(ctx, query, errMsg, eventID); err != nil {
		observability.GetLogger().Warn().Err(err).Str("event_id", eventID).Msg("failed to mark webhook event failed")
	}
}
