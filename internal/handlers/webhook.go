package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/driftwear/checkout-api/internal/payments"
	"github.com/driftwear/checkout-api/internal/platform/httpx"
	"github.com/driftwear/checkout-api/internal/platform/observability"
	"github.com/driftwear/checkout-api/internal/services"
)

// Stripe caps event payloads well below this; the limit only guards against
// garbage input.
const maxWebhookBody = 256 * 1024

const stripeSignatureHeader = "Stripe-Signature"

// WebhookHandlers receives payment provider event notifications.
type WebhookHandlers struct {
	verifier *payments.WebhookVerifier
	notifier services.NotificationService
}

// NewWebhookHandlers constructs webhook handlers.
func NewWebhookHandlers(verifier *payments.WebhookVerifier, notifier services.NotificationService) *WebhookHandlers {
	return &WebhookHandlers{verifier: verifier, notifier: notifier}
}

// Routes registers the webhook endpoint under the provided router.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/webhook", h.receive)
}

// receive verifies the event signature over the raw body bytes, then hands
// completed sessions to the notifier. Once the signature checks out the
// response is always 200: a downstream notification fault must not make the
// provider retry a settled payment forever.
func (h *WebhookHandlers) receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	if h.verifier == nil {
		httpx.WriteError(ctx, w, httpx.NewError("webhook_unavailable", "webhook verification unavailable", http.StatusServiceUnavailable))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "could not read request body", http.StatusBadRequest))
		return
	}

	event, err := h.verifier.Verify(payload, r.Header.Get(stripeSignatureHeader))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_signature", "webhook signature verification failed", http.StatusBadRequest))
		return
	}

	if event.Type == payments.EventTypeCheckoutSessionCompleted && h.notifier != nil {
		sessionID := event.SessionID()
		if sessionID == "" {
			logger.Warn("completed event without session id", zap.String("event_id", event.ID))
		} else if err := h.notifier.HandleSessionCompleted(ctx, sessionID); err != nil {
			logger.Error("order notification failed", zap.String("event_id", event.ID), zap.Error(err))
		}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"received": true})
}
