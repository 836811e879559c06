package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/driftwear/checkout-api/internal/payments"
	"github.com/driftwear/checkout-api/internal/platform/httpx"
	"github.com/driftwear/checkout-api/internal/services"
)

const maxCheckoutRequestBody = 16 * 1024

// CheckoutHandlers exposes the checkout session endpoints.
type CheckoutHandlers struct {
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs checkout handlers.
func NewCheckoutHandlers(checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

// Routes registers checkout endpoints under the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/create-checkout-session", h.createSession)
	r.Get("/checkout-session/{sessionID}", h.getSession)
}

type checkoutItemRequest struct {
	SKU      string       `json:"sku"`
	Quantity cartQuantity `json:"qty"`
}

// cartQuantity decodes the qty field leniently. A value that does not parse
// as a whole number decodes to zero, and the cart layer lifts zero to one.
type cartQuantity int

func (q *cartQuantity) UnmarshalJSON(data []byte) error {
	*q = 0
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*q = cartQuantity(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if parsed, parseErr := strconv.Atoi(strings.TrimSpace(s)); parseErr == nil {
			*q = cartQuantity(parsed)
		}
	}
	return nil
}

type createSessionRequest struct {
	Items []checkoutItemRequest `json:"items"`
	Email string                `json:"email"`
}

type createSessionResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId,omitempty"`
}

type sessionStatusResponse struct {
	ID             string            `json:"id"`
	Status         string            `json:"status"`
	PaymentStatus  string            `json:"paymentStatus"`
	Currency       string            `json:"currency"`
	AmountSubtotal int64             `json:"amountSubtotal"`
	AmountShipping int64             `json:"amountShipping"`
	AmountTotal    int64             `json:"amountTotal"`
	CustomerName   string            `json:"customerName,omitempty"`
	CustomerEmail  string            `json:"customerEmail,omitempty"`
	Lines          []sessionLine     `json:"lines,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type sessionLine struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	Amount      int64  `json:"amount"`
}

func (h *CheckoutHandlers) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutRequestBody)
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

	var req createSessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	// Only sku and qty cross this boundary; any price fields the client sends
	// are never decoded.
	lines := make([]services.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, services.CartLine{SKURaw: item.SKU, Quantity: int(item.Quantity)})
	}

	redirect, err := h.checkout.CreateSession(ctx, services.CreateSessionCommand{
		Lines:         lines,
		CustomerEmail: strings.TrimSpace(req.Email),
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, createSessionResponse{URL: redirect.RedirectURL, SessionID: redirect.SessionID})
}

func (h *CheckoutHandlers) getSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	details, err := h.checkout.GetSession(ctx, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	resp := sessionStatusResponse{
		ID:             details.ID,
		Status:         details.Status,
		PaymentStatus:  details.PaymentStatus,
		Currency:       details.Currency,
		AmountSubtotal: details.AmountSubtotal,
		AmountShipping: details.AmountShipping,
		AmountTotal:    details.AmountTotal,
		CustomerName:   details.CustomerName,
		CustomerEmail:  details.CustomerEmail,
		Metadata:       details.Metadata,
	}
	for _, line := range details.Lines {
		resp.Lines = append(resp.Lines, sessionLine{
			Description: line.Description,
			Quantity:    line.Quantity,
			Amount:      line.AmountMinorUnits,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("empty_cart", "cart contains no items", http.StatusBadRequest))
	case errors.Is(err, services.ErrUnknownSKU):
		httpx.WriteError(ctx, w, httpx.NewError("unknown_sku", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "a session id is required", http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutSessionNotFound), errors.Is(err, payments.ErrSessionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("session_not_found", "checkout session not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCheckoutSessionFailed):
		httpx.WriteError(ctx, w, httpx.NewError("payment_provider_error", "payment provider request failed", http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
