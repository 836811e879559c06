package services

import (
	"context"

	"github.com/driftwear/checkout-api/internal/domain"
	"github.com/driftwear/checkout-api/internal/payments"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	CartLine        = domain.CartLine
	NormalizedLine  = domain.NormalizedLine
	ShippingOption  = domain.ShippingOption
	PurchasedLine   = domain.PurchasedLine
	PostalAddress   = domain.PostalAddress
	CompletedRecord = domain.CompletedSessionRecord
)

// CartService resolves raw client cart lines against the catalog.
type CartService interface {
	Normalize(ctx context.Context, lines []domain.CartLine) ([]domain.NormalizedLine, error)
}

// CheckoutService orchestrates checkout session creation and status lookups
// against the payment provider. All pricing is resolved server side.
type CheckoutService interface {
	CreateSession(ctx context.Context, cmd CreateSessionCommand) (CheckoutRedirect, error)
	GetSession(ctx context.Context, sessionID string) (payments.SessionDetails, error)
}

// NotificationService handles completed checkout sessions delivered by the
// payment provider's webhook, at most once per session.
type NotificationService interface {
	HandleSessionCompleted(ctx context.Context, sessionID string) error
}

// SubscriptionService manages marketing list membership. Enrollment always
// requires explicit consent from the subscriber.
type SubscriptionService interface {
	Subscribe(ctx context.Context, cmd SubscribeCommand) error
}

// CreateSessionCommand carries the client's cart plus optional contact hints.
// It never carries prices.
type CreateSessionCommand struct {
	Lines         []domain.CartLine
	CustomerEmail string
}

// CheckoutRedirect is the minimal payload returned to the storefront after a
// session is created.
type CheckoutRedirect struct {
	SessionID   string
	RedirectURL string
}

// SubscribeCommand captures a marketing opt-in request. Consented must be an
// explicit affirmative from the subscriber; it is never defaulted.
type SubscribeCommand struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Consented bool
}
