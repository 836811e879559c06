package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// NewCORSMiddleware builds the cross-origin policy from the configured
// allow-list. An empty list denies every cross-origin request; a single "*"
// entry allows any origin.
func NewCORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	normalized := normalizeOrigins(allowedOrigins)
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return OriginAllowed(normalized, origin)
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Stripe-Signature"},
		MaxAge:         300,
	})
}

// OriginAllowed reports whether origin matches the normalized allow-list.
// Matching is exact apart from case-insensitive scheme/host comparison.
func OriginAllowed(allowed []string, origin string) bool {
	origin = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(origin, "/")))
	if origin == "" {
		return false
	}
	for _, candidate := range allowed {
		if candidate == "*" || candidate == origin {
			return true
		}
	}
	return false
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(origin, "/")))
		if origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
