package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/driftwear/checkout-api/internal/platform/httpx"
	"github.com/driftwear/checkout-api/internal/services"
)

const (
	maxSubscribeRequestBody = 4 * 1024

	subscribeRateLimit  = 5
	subscribeRateWindow = time.Minute
)

// SubscribeHandlers exposes the marketing opt-in endpoint.
type SubscribeHandlers struct {
	subscriptions services.SubscriptionService
	limiter       rateLimiter
}

// SubscribeOption customises subscription handler construction.
type SubscribeOption func(*SubscribeHandlers)

// WithSubscribeLimiter overrides the per-client rate limiter, primarily for tests.
func WithSubscribeLimiter(limiter rateLimiter) SubscribeOption {
	return func(h *SubscribeHandlers) {
		h.limiter = limiter
	}
}

// NewSubscribeHandlers constructs subscription handlers with a per-IP rate
// limit so the public opt-in endpoint cannot be used to spray contacts at the
// marketing provider.
func NewSubscribeHandlers(subscriptions services.SubscriptionService, opts ...SubscribeOption) *SubscribeHandlers {
	h := &SubscribeHandlers{
		subscriptions: subscriptions,
		limiter:       newFixedWindowLimiter(subscribeRateLimit, subscribeRateWindow, nil),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the subscribe endpoint under the provided router.
func (h *SubscribeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/subscribe", h.subscribe)
}

type subscribeRequest struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Consent   bool   `json:"consent"`
	FirstName string `json:"marketing_first_name"`
	LastName  string `json:"marketing_last_name"`
}

func (h *SubscribeHandlers) subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.subscriptions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("subscribe_unavailable", "subscription service unavailable", http.StatusServiceUnavailable))
		return
	}
	if h.limiter != nil && !h.limiter.Allow(clientKey(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many subscription attempts, try again later", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxSubscribeRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		code := "invalid_request"
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
			code = "payload_too_large"
		}
		httpx.WriteError(ctx, w, httpx.NewError(code, err.Error(), status))
		return
	}

	var req subscribeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	err = h.subscriptions.Subscribe(ctx, services.SubscribeCommand{
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Consented: req.Consent,
	})
	if err != nil {
		writeSubscribeError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Every subscribe response carries an ok flag alongside the error envelope.
var subscribeNotOK = map[string]any{"ok": false}

func writeSubscribeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrConsentRequired):
		httpx.WriteError(ctx, w, httpx.NewError("consent_required", "explicit consent is required to subscribe", http.StatusBadRequest).WithDetails(subscribeNotOK))
	case errors.Is(err, services.ErrInvalidEmail):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_email", "a valid email address is required", http.StatusBadRequest).WithDetails(subscribeNotOK))
	case errors.Is(err, services.ErrSubscriptionFailed):
		httpx.WriteError(ctx, w, httpx.NewError("subscription_provider_error", "subscription provider request failed", http.StatusBadGateway).WithDetails(subscribeNotOK))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError).WithDetails(subscribeNotOK))
	}
}
