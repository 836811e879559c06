package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78/webhook"
)

// EventTypeCheckoutSessionCompleted is the only event type that triggers side
// effects; every other verified event is acknowledged and ignored.
const EventTypeCheckoutSessionCompleted = "checkout.session.completed"

var (
	// ErrWebhookSecretMissing indicates verification was attempted without a
	// configured signing secret. Verification fails closed: unsigned payloads
	// are never trusted.
	ErrWebhookSecretMissing = errors.New("payments: webhook signing secret not configured")
	// ErrWebhookSignatureInvalid indicates the signature did not match the raw payload.
	ErrWebhookSignatureInvalid = errors.New("payments: webhook signature verification failed")
)

// WebhookEvent is a verified provider notification.
type WebhookEvent struct {
	ID   string
	Type string
	// Object holds the raw JSON of the event's primary object. For completed
	// checkout sessions this is the session itself.
	Object json.RawMessage
}

// SessionID extracts the checkout session identifier from a
// checkout.session.* event payload.
func (e WebhookEvent) SessionID() string {
	var session struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(e.Object, &session); err != nil {
		return ""
	}
	return strings.TrimSpace(session.ID)
}

// WebhookVerifier authenticates inbound Stripe webhook deliveries using the
// shared signing secret and the raw request body. The body must reach Verify
// exactly as received; any re-serialization invalidates the signature.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier constructs a verifier. An empty secret is rejected so a
// misconfigured deployment cannot silently accept unsigned events.
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrWebhookSecretMissing
	}
	return &WebhookVerifier{secret: secret}, nil
}

// Verify checks the Stripe-Signature header against the raw payload bytes and
// returns the decoded event on success.
func (v *WebhookVerifier) Verify(payload []byte, signatureHeader string) (WebhookEvent, error) {
	if v == nil || v.secret == "" {
		return WebhookEvent{}, ErrWebhookSecretMissing
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrWebhookSignatureInvalid, err)
	}

	return WebhookEvent{
		ID:     event.ID,
		Type:   string(event.Type),
		Object: event.Data.Raw,
	}, nil
}
