package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/driftwear/checkout-api/internal/catalog"
	"github.com/driftwear/checkout-api/internal/domain"
	"github.com/driftwear/checkout-api/internal/payments"
	"github.com/driftwear/checkout-api/internal/platform/textutil"
)

const (
	successURLPath = "/success?session_id={CHECKOUT_SESSION_ID}"
	cancelURLPath  = "/cancel"

	metadataSourceKey     = "source"
	metadataVariantPrefix = "size_"
	defaultMetadataSource = "web"
)

var (
	// ErrCheckoutSessionFailed indicates the payment provider rejected or
	// failed the session creation call.
	ErrCheckoutSessionFailed = errors.New("checkout: session creation failed")
	// ErrCheckoutSessionNotFound indicates the requested session id is
	// unknown to the payment provider.
	ErrCheckoutSessionNotFound = errors.New("checkout: session not found")
	// ErrCheckoutInvalidInput indicates the caller supplied invalid input.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
)

// CheckoutServiceDeps wires the dependencies required by the checkout service.
type CheckoutServiceDeps struct {
	Catalog   *catalog.Catalog
	Cart      CartService
	Pricing   *PricingEngine
	Payments  payments.Provider
	Currency  string
	BaseURL   string
	SourceTag string
	Clock     func() time.Time
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	catalog   *catalog.Catalog
	cart      CartService
	pricing   *PricingEngine
	payments  payments.Provider
	currency  string
	baseURL   string
	sourceTag string
	now       func() time.Time
	logger    func(ctx context.Context, event string, fields map[string]any)
}

// NewCheckoutService constructs a CheckoutService validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("checkout service: catalog is required")
	}
	if deps.Cart == nil {
		return nil, errors.New("checkout service: cart service is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("checkout service: pricing engine is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("checkout service: payment provider is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(deps.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("checkout service: base url is required")
	}
	currency := strings.ToLower(strings.TrimSpace(deps.Currency))
	if currency == "" {
		return nil, errors.New("checkout service: currency is required")
	}
	sourceTag := strings.TrimSpace(deps.SourceTag)
	if sourceTag == "" {
		sourceTag = defaultMetadataSource
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &checkoutService{
		catalog:   deps.Catalog,
		cart:      deps.Cart,
		pricing:   deps.Pricing,
		payments:  deps.Payments,
		currency:  currency,
		baseURL:   baseURL,
		sourceTag: sourceTag,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// CreateSession normalizes the cart, prices it from the catalog, and asks the
// payment provider for a hosted session. Client-supplied prices never enter
// this path; the catalog is the only price authority.
func (s *checkoutService) CreateSession(ctx context.Context, cmd CreateSessionCommand) (CheckoutRedirect, error) {
	lines, err := s.cart.Normalize(ctx, cmd.Lines)
	if err != nil {
		return CheckoutRedirect{}, err
	}

	items := make([]payments.CheckoutLineItem, 0, len(lines))
	for _, line := range lines {
		entry, lookupErr := s.catalog.Lookup(line.BaseSKU)
		if lookupErr != nil {
			return CheckoutRedirect{}, fmt.Errorf("%w: %s", ErrUnknownSKU, line.BaseSKU)
		}
		items = append(items, payments.CheckoutLineItem{
			Name:        entry.Name,
			Description: entry.Description,
			SKU:         entry.SKU,
			Variant:     line.Variant,
			Quantity:    int64(line.Quantity),
			UnitAmount:  entry.PriceMinor,
			Currency:    s.currency,
			ImageURL:    entry.ImageURL,
		})
	}

	subtotal := s.pricing.Subtotal(lines)
	req := payments.CheckoutSessionRequest{
		Currency:        s.currency,
		SuccessURL:      s.baseURL + successURLPath,
		CancelURL:       s.baseURL + cancelURLPath,
		CustomerEmail:   strings.TrimSpace(cmd.CustomerEmail),
		Metadata:        s.sessionMetadata(lines),
		Items:           items,
		ShippingOptions: s.pricing.ShippingOptions(subtotal),
	}

	session, err := s.payments.CreateCheckoutSession(ctx, req)
	if err != nil {
		s.logger(ctx, "checkout.session_create_failed", map[string]any{"error": err.Error()})
		return CheckoutRedirect{}, fmt.Errorf("%w: %v", ErrCheckoutSessionFailed, err)
	}

	s.logger(ctx, "checkout.session_created", map[string]any{
		"session_id":     session.ID,
		"line_count":     len(items),
		"subtotal_minor": subtotal,
	})
	return CheckoutRedirect{SessionID: session.ID, RedirectURL: session.RedirectURL}, nil
}

// GetSession returns the provider's read-only projection of a session.
func (s *checkoutService) GetSession(ctx context.Context, sessionID string) (payments.SessionDetails, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return payments.SessionDetails{}, ErrCheckoutInvalidInput
	}
	details, err := s.payments.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, payments.ErrSessionNotFound) {
			return payments.SessionDetails{}, ErrCheckoutSessionNotFound
		}
		return payments.SessionDetails{}, fmt.Errorf("%w: %v", ErrCheckoutSessionFailed, err)
	}
	return details, nil
}

// sessionMetadata flattens the cart into the provider's string-map metadata:
// the configured source tag plus one size_<sku> entry per line with a variant.
func (s *checkoutService) sessionMetadata(lines []domain.NormalizedLine) map[string]string {
	metadata := map[string]string{metadataSourceKey: s.sourceTag}
	for _, line := range lines {
		if line.Variant == "" {
			continue
		}
		metadata[metadataVariantPrefix+strings.ToLower(line.BaseSKU)] = line.Variant
	}
	return textutil.NormalizeStringMap(metadata)
}
