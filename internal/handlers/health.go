package handlers

import (
	"net/http"
	"time"

	"github.com/driftwear/checkout-api/internal/platform/httpx"
)

// HealthHandlers reports liveness plus process uptime.
type HealthHandlers struct {
	now   func() time.Time
	start time.Time
}

// HealthOption customises health handler construction.
type HealthOption func(*HealthHandlers)

// WithHealthClock overrides the time source, primarily for tests.
func WithHealthClock(now func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHealthHandlers constructs health handlers anchored at the current time.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	h.start = h.now()
	return h
}

// Health responds with a simple status payload for monitoring.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"uptime":    now.Sub(h.start).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}
