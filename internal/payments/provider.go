package payments

import (
	"context"
	"errors"
	"time"

	"github.com/driftwear/checkout-api/internal/domain"
)

// ErrSessionNotFound is returned when the provider has no session for the id.
var ErrSessionNotFound = errors.New("payments: session not found")

// CheckoutLineItem describes a single priced line to include in a checkout
// session. Amounts always originate from the catalog, never from the client.
type CheckoutLineItem struct {
	Name        string
	Description string
	SKU         string
	Variant     string
	Quantity    int64
	UnitAmount  int64
	Currency    string
	ImageURL    string
}

// CheckoutSessionRequest captures the payload required to create a checkout session.
type CheckoutSessionRequest struct {
	Currency        string
	SuccessURL      string
	CancelURL       string
	CustomerEmail   string
	Metadata        map[string]string
	Items           []CheckoutLineItem
	ShippingOptions []domain.ShippingOption
}

// CheckoutSession represents the provider session returned to the client.
type CheckoutSession struct {
	ID          string
	Provider    string
	RedirectURL string
	ExpiresAt   time.Time
}

// SessionDetails is the read-only projection of a provider session used for
// status lookups and order notification.
type SessionDetails struct {
	ID              string
	Status          string
	PaymentStatus   string
	Currency        string
	AmountSubtotal  int64
	AmountShipping  int64
	AmountTotal     int64
	CustomerName    string
	CustomerEmail   string
	ShippingAddress domain.PostalAddress
	Lines           []domain.PurchasedLine
	Metadata        map[string]string
}

// Provider defines the contract payment adapters implement.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error)
	GetSession(ctx context.Context, id string) (SessionDetails, error)
}
