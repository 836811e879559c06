package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/driftwear/checkout-api/internal/catalog"
	"github.com/driftwear/checkout-api/internal/domain"
)

const (
	variantSeparator = "--"
	minLineQuantity  = 1
	maxLineQuantity  = 99
)

var (
	// ErrEmptyCart indicates the submitted cart contains no usable lines.
	ErrEmptyCart = errors.New("cart: empty")
	// ErrUnknownSKU indicates at least one cart line references a SKU the
	// catalog does not carry. The error message names the offending SKU.
	ErrUnknownSKU = errors.New("cart: unknown sku")
)

// CartServiceDeps wires the dependencies required by the cart service.
type CartServiceDeps struct {
	Catalog *catalog.Catalog
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

type cartService struct {
	catalog *catalog.Catalog
	logger  func(ctx context.Context, event string, fields map[string]any)
}

// NewCartService constructs a CartService validating required dependencies.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("cart service: catalog is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &cartService{catalog: deps.Catalog, logger: logger}, nil
}

// Normalize resolves raw cart lines into catalog-backed lines. Every SKU must
// resolve; a single unknown SKU rejects the whole cart so the caller never
// silently charges for a subset of what the customer asked for.
func (s *cartService) Normalize(ctx context.Context, lines []domain.CartLine) ([]domain.NormalizedLine, error) {
	normalized := make([]domain.NormalizedLine, 0, len(lines))
	for _, line := range lines {
		base, variant := SplitSKU(line.SKURaw)
		if base == "" {
			continue
		}
		if _, err := s.catalog.Lookup(base); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				s.logger(ctx, "cart.unknown_sku", map[string]any{"sku": base})
				return nil, fmt.Errorf("%w: %s", ErrUnknownSKU, base)
			}
			return nil, err
		}
		normalized = append(normalized, domain.NormalizedLine{
			BaseSKU:  base,
			Variant:  variant,
			Quantity: ClampQuantity(line.Quantity),
		})
	}
	if len(normalized) == 0 {
		return nil, ErrEmptyCart
	}
	return normalized, nil
}

// SplitSKU separates a raw SKU into its base and optional variant tag. Only
// the first separator splits; the variant keeps any further separators and is
// reported upper-cased. "TEE-BLK--L" yields ("TEE-BLK", "L").
func SplitSKU(raw string) (base, variant string) {
	raw = strings.TrimSpace(raw)
	before, after, found := strings.Cut(raw, variantSeparator)
	if !found {
		return raw, ""
	}
	return strings.TrimSpace(before), strings.ToUpper(strings.TrimSpace(after))
}

// ClampQuantity forces a client-supplied quantity into [1, 99]. Zero and
// negative values mean the client sent nothing usable and default to 1.
func ClampQuantity(quantity int) int {
	if quantity < minLineQuantity {
		return minLineQuantity
	}
	if quantity > maxLineQuantity {
		return maxLineQuantity
	}
	return quantity
}
