package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/driftwear/checkout-api/internal/catalog"
	"github.com/driftwear/checkout-api/internal/domain"
)

func testCatalog() *catalog.Catalog {
	return catalog.FromEntries(
		catalog.Entry{SKU: "TEE-BLK", Name: "Black Tee", PriceMinor: 2000, Currency: "usd"},
		catalog.Entry{SKU: "HOOD-GRY", Name: "Grey Hoodie", PriceMinor: 6500, Currency: "usd"},
		catalog.Entry{SKU: "CAP-NAV", Name: "Navy Cap", PriceMinor: 2500, Currency: "usd"},
	)
}

func newTestCartService(t *testing.T) CartService {
	t.Helper()
	svc, err := NewCartService(CartServiceDeps{Catalog: testCatalog()})
	if err != nil {
		t.Fatalf("NewCartService failed: %v", err)
	}
	return svc
}

func TestNormalizeSplitsVariants(t *testing.T) {
	svc := newTestCartService(t)

	lines, err := svc.Normalize(context.Background(), []domain.CartLine{
		{SKURaw: "TEE-BLK--L", Quantity: 2},
		{SKURaw: "HOOD-GRY", Quantity: 1},
		{SKURaw: "CAP-NAV--one--size", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	want := []domain.NormalizedLine{
		{BaseSKU: "TEE-BLK", Variant: "L", Quantity: 2},
		{BaseSKU: "HOOD-GRY", Variant: "", Quantity: 1},
		{BaseSKU: "CAP-NAV", Variant: "ONE--SIZE", Quantity: 3},
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %+v, want %+v", i, lines[i], want[i])
		}
	}
}

func TestNormalizeClampsQuantities(t *testing.T) {
	svc := newTestCartService(t)

	cases := []struct {
		in   int
		want int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{42, 42},
		{99, 99},
		{100, 99},
		{1_000_000, 99},
	}
	for _, tc := range cases {
		lines, err := svc.Normalize(context.Background(), []domain.CartLine{{SKURaw: "TEE-BLK", Quantity: tc.in}})
		if err != nil {
			t.Fatalf("normalize(%d) failed: %v", tc.in, err)
		}
		if lines[0].Quantity != tc.want {
			t.Errorf("quantity %d clamped to %d, want %d", tc.in, lines[0].Quantity, tc.want)
		}
	}
}

func TestNormalizeRejectsUnknownSKU(t *testing.T) {
	svc := newTestCartService(t)

	_, err := svc.Normalize(context.Background(), []domain.CartLine{
		{SKURaw: "TEE-BLK", Quantity: 1},
		{SKURaw: "GHOST-SKU--XL", Quantity: 1},
	})
	if !errors.Is(err, ErrUnknownSKU) {
		t.Fatalf("expected ErrUnknownSKU, got %v", err)
	}
	if !strings.Contains(err.Error(), "GHOST-SKU") {
		t.Fatalf("expected offending sku in error, got %q", err.Error())
	}
}

func TestNormalizeEmptyCart(t *testing.T) {
	svc := newTestCartService(t)

	for _, lines := range [][]domain.CartLine{
		nil,
		{},
		{{SKURaw: "   ", Quantity: 2}},
	} {
		if _, err := svc.Normalize(context.Background(), lines); !errors.Is(err, ErrEmptyCart) {
			t.Fatalf("expected ErrEmptyCart for %v, got %v", lines, err)
		}
	}
}

func TestSplitSKU(t *testing.T) {
	cases := []struct {
		raw     string
		base    string
		variant string
	}{
		{"TEE-BLK--L", "TEE-BLK", "L"},
		{"TEE-BLK--l", "TEE-BLK", "L"},
		{"TEE-BLK", "TEE-BLK", ""},
		{"TEE-BLK--", "TEE-BLK", ""},
		{"  TEE-BLK--m  ", "TEE-BLK", "M"},
		{"", "", ""},
	}
	for _, tc := range cases {
		base, variant := SplitSKU(tc.raw)
		if base != tc.base || variant != tc.variant {
			t.Errorf("SplitSKU(%q) = (%q, %q), want (%q, %q)", tc.raw, base, variant, tc.base, tc.variant)
		}
	}
}
