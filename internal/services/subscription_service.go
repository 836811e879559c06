package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/driftwear/checkout-api/internal/mail"
	"github.com/driftwear/checkout-api/internal/platform/observability"
)

var (
	// ErrConsentRequired indicates the subscriber did not explicitly consent.
	ErrConsentRequired = errors.New("subscription: consent required")
	// ErrInvalidEmail indicates the submitted email address is unusable.
	ErrInvalidEmail = errors.New("subscription: invalid email")
	// ErrSubscriptionFailed indicates the marketing provider rejected the
	// registration.
	ErrSubscriptionFailed = errors.New("subscription: registration failed")
)

// SubscriptionServiceDeps wires the dependencies required by the subscription service.
type SubscriptionServiceDeps struct {
	Registrar mail.ContactRegistrar
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type subscriptionService struct {
	registrar mail.ContactRegistrar
	logger    func(ctx context.Context, event string, fields map[string]any)
}

// NewSubscriptionService constructs a SubscriptionService validating required dependencies.
func NewSubscriptionService(deps SubscriptionServiceDeps) (SubscriptionService, error) {
	if deps.Registrar == nil {
		return nil, errors.New("subscription service: registrar is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &subscriptionService{registrar: deps.Registrar, logger: logger}, nil
}

// Subscribe registers a marketing contact. Consent gates everything: without
// an explicit opt-in the request is rejected before any provider call.
func (s *subscriptionService) Subscribe(ctx context.Context, cmd SubscribeCommand) error {
	if !cmd.Consented {
		return ErrConsentRequired
	}
	email := strings.TrimSpace(cmd.Email)
	if !validEmail(email) {
		return ErrInvalidEmail
	}

	contactID, err := s.registrar.Register(ctx, mail.Contact{
		Email:     email,
		FirstName: strings.TrimSpace(cmd.FirstName),
		LastName:  strings.TrimSpace(cmd.LastName),
	})
	if err != nil {
		s.logger(ctx, "subscription.register_failed", map[string]any{
			"email": observability.RedactEmail(email),
			"error": err.Error(),
		})
		return fmt.Errorf("%w: %v", ErrSubscriptionFailed, err)
	}

	s.logger(ctx, "subscription.registered", map[string]any{
		"email":      observability.RedactEmail(email),
		"contact_id": contactID,
	})
	return nil
}

// validEmail applies a minimal shape check: one "@" with non-empty local part
// and a dotted domain. Anything stricter is the marketing provider's call.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.Contains(domain, "@") {
		return false
	}
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
