package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/driftwear/checkout-api/internal/domain"
	"github.com/driftwear/checkout-api/internal/payments"
)

type stubProvider struct {
	lastRequest payments.CheckoutSessionRequest
	session     payments.CheckoutSession
	createErr   error

	lastSessionID string
	details       payments.SessionDetails
	getErr        error
}

func (s *stubProvider) CreateCheckoutSession(_ context.Context, req payments.CheckoutSessionRequest) (payments.CheckoutSession, error) {
	s.lastRequest = req
	if s.createErr != nil {
		return payments.CheckoutSession{}, s.createErr
	}
	return s.session, nil
}

func (s *stubProvider) GetSession(_ context.Context, id string) (payments.SessionDetails, error) {
	s.lastSessionID = id
	if s.getErr != nil {
		return payments.SessionDetails{}, s.getErr
	}
	return s.details, nil
}

func newTestCheckoutService(t *testing.T, provider *stubProvider) CheckoutService {
	t.Helper()
	cat := testCatalog()
	cart, err := NewCartService(CartServiceDeps{Catalog: cat})
	if err != nil {
		t.Fatalf("NewCartService failed: %v", err)
	}
	pricing, err := NewPricingEngine(cat, ShippingRates{StandardRate: 500, ExpressRate: 1500, FreeThreshold: 15000})
	if err != nil {
		t.Fatalf("NewPricingEngine failed: %v", err)
	}
	svc, err := NewCheckoutService(CheckoutServiceDeps{
		Catalog:   cat,
		Cart:      cart,
		Pricing:   pricing,
		Payments:  provider,
		Currency:  "usd",
		BaseURL:   "https://shop.driftwear.example/",
		SourceTag: "web",
		Clock:     func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewCheckoutService failed: %v", err)
	}
	return svc
}

func TestCreateSessionBuildsProviderRequest(t *testing.T) {
	provider := &stubProvider{session: payments.CheckoutSession{
		ID:          "cs_test_123",
		RedirectURL: "https://checkout.stripe.com/c/pay/cs_test_123",
	}}
	svc := newTestCheckoutService(t, provider)

	redirect, err := svc.CreateSession(context.Background(), CreateSessionCommand{
		Lines: []domain.CartLine{
			{SKURaw: "TEE-BLK--l", Quantity: 2},
			{SKURaw: "HOOD-GRY", Quantity: 0},
		},
		CustomerEmail: " jordan@example.com ",
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if redirect.SessionID != "cs_test_123" || redirect.RedirectURL == "" {
		t.Fatalf("unexpected redirect: %+v", redirect)
	}

	req := provider.lastRequest
	if req.SuccessURL != "https://shop.driftwear.example/success?session_id={CHECKOUT_SESSION_ID}" {
		t.Fatalf("unexpected success url: %q", req.SuccessURL)
	}
	if req.CancelURL != "https://shop.driftwear.example/cancel" {
		t.Fatalf("unexpected cancel url: %q", req.CancelURL)
	}
	if req.CustomerEmail != "jordan@example.com" {
		t.Fatalf("unexpected customer email: %q", req.CustomerEmail)
	}
	if len(req.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(req.Items))
	}
	tee := req.Items[0]
	if tee.SKU != "TEE-BLK" || tee.Variant != "L" || tee.Quantity != 2 || tee.UnitAmount != 2000 || tee.Currency != "usd" {
		t.Fatalf("unexpected tee line: %+v", tee)
	}
	hoodie := req.Items[1]
	if hoodie.SKU != "HOOD-GRY" || hoodie.Quantity != 1 || hoodie.UnitAmount != 6500 {
		t.Fatalf("unexpected hoodie line: %+v", hoodie)
	}
	if req.Metadata["source"] != "web" {
		t.Fatalf("expected source metadata, got %v", req.Metadata)
	}
	if req.Metadata["size_tee-blk"] != "L" {
		t.Fatalf("expected variant metadata, got %v", req.Metadata)
	}
	if _, ok := req.Metadata["size_hood-gry"]; ok {
		t.Fatalf("variant-less line must not add metadata, got %v", req.Metadata)
	}
	// subtotal 2*2000 + 6500 = 10500, below the free threshold
	if len(req.ShippingOptions) != 2 {
		t.Fatalf("expected 2 shipping options, got %+v", req.ShippingOptions)
	}
}

func TestCreateSessionOffersFreeShippingAboveThreshold(t *testing.T) {
	provider := &stubProvider{session: payments.CheckoutSession{ID: "cs_test_456", RedirectURL: "https://example/redirect"}}
	svc := newTestCheckoutService(t, provider)

	_, err := svc.CreateSession(context.Background(), CreateSessionCommand{
		Lines: []domain.CartLine{{SKURaw: "HOOD-GRY", Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	options := provider.lastRequest.ShippingOptions
	if len(options) != 3 || options[0].AmountMinorUnits != 0 {
		t.Fatalf("expected free shipping first, got %+v", options)
	}
}

func TestCreateSessionIgnoresClientPrices(t *testing.T) {
	provider := &stubProvider{session: payments.CheckoutSession{ID: "cs_test_789", RedirectURL: "https://example/redirect"}}
	svc := newTestCheckoutService(t, provider)

	// CartLine has no price field at all; the catalog price must win even for
	// a single-unit cart.
	_, err := svc.CreateSession(context.Background(), CreateSessionCommand{
		Lines: []domain.CartLine{{SKURaw: "CAP-NAV", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if got := provider.lastRequest.Items[0].UnitAmount; got != 2500 {
		t.Fatalf("unit amount = %d, want catalog price 2500", got)
	}
}

func TestCreateSessionErrors(t *testing.T) {
	provider := &stubProvider{}
	svc := newTestCheckoutService(t, provider)

	if _, err := svc.CreateSession(context.Background(), CreateSessionCommand{}); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	_, err := svc.CreateSession(context.Background(), CreateSessionCommand{
		Lines: []domain.CartLine{{SKURaw: "GHOST", Quantity: 1}},
	})
	if !errors.Is(err, ErrUnknownSKU) {
		t.Fatalf("expected ErrUnknownSKU, got %v", err)
	}

	provider.createErr = errors.New("stripe: 503")
	_, err = svc.CreateSession(context.Background(), CreateSessionCommand{
		Lines: []domain.CartLine{{SKURaw: "TEE-BLK", Quantity: 1}},
	})
	if !errors.Is(err, ErrCheckoutSessionFailed) {
		t.Fatalf("expected ErrCheckoutSessionFailed, got %v", err)
	}
}

func TestGetSession(t *testing.T) {
	provider := &stubProvider{details: payments.SessionDetails{
		ID:          "cs_test_123",
		Status:      "complete",
		AmountTotal: 4500,
	}}
	svc := newTestCheckoutService(t, provider)

	details, err := svc.GetSession(context.Background(), " cs_test_123 ")
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if provider.lastSessionID != "cs_test_123" {
		t.Fatalf("expected trimmed id, got %q", provider.lastSessionID)
	}
	if details.Status != "complete" || details.AmountTotal != 4500 {
		t.Fatalf("unexpected details: %+v", details)
	}

	if _, err := svc.GetSession(context.Background(), "  "); !errors.Is(err, ErrCheckoutInvalidInput) {
		t.Fatalf("expected ErrCheckoutInvalidInput, got %v", err)
	}

	provider.getErr = payments.ErrSessionNotFound
	if _, err := svc.GetSession(context.Background(), "cs_missing"); !errors.Is(err, ErrCheckoutSessionNotFound) {
		t.Fatalf("expected ErrCheckoutSessionNotFound, got %v", err)
	}
}
