package services

import (
	"errors"

	"github.com/driftwear/checkout-api/internal/catalog"
	"github.com/driftwear/checkout-api/internal/domain"
)

const (
	shippingLabelFree     = "Free shipping"
	shippingLabelStandard = "Standard shipping"
	shippingLabelExpress  = "Express shipping"
)

// ShippingRates holds the configured shipping tiers in minor currency units.
// FreeThreshold is the subtotal at which the free tier becomes available.
type ShippingRates struct {
	StandardRate  int64
	ExpressRate   int64
	FreeThreshold int64
}

// PricingEngine computes order subtotals and shipping tiers from the catalog
// and the configured rates.
type PricingEngine struct {
	catalog *catalog.Catalog
	rates   ShippingRates
}

// NewPricingEngine constructs a PricingEngine validating required dependencies.
func NewPricingEngine(cat *catalog.Catalog, rates ShippingRates) (*PricingEngine, error) {
	if cat == nil {
		return nil, errors.New("pricing engine: catalog is required")
	}
	if rates.StandardRate < 0 || rates.ExpressRate < 0 || rates.FreeThreshold < 0 {
		return nil, errors.New("pricing engine: shipping rates must be non-negative")
	}
	return &PricingEngine{catalog: cat, rates: rates}, nil
}

// Subtotal sums catalog price times quantity over the given lines. Lines whose
// base SKU no longer resolves contribute nothing to the sum.
func (p *PricingEngine) Subtotal(lines []domain.NormalizedLine) int64 {
	var total int64
	for _, line := range lines {
		entry, err := p.catalog.Lookup(line.BaseSKU)
		if err != nil {
			continue
		}
		total += entry.PriceMinor * int64(line.Quantity)
	}
	return total
}

// ShippingOptions returns the shipping tiers to offer for the given subtotal,
// in presentation order. Standard and express are always offered; the free
// tier is prepended once the subtotal reaches the configured threshold.
func (p *PricingEngine) ShippingOptions(subtotalMinor int64) []domain.ShippingOption {
	options := []domain.ShippingOption{
		{Label: shippingLabelStandard, AmountMinorUnits: p.rates.StandardRate, EstimateDaysMin: 5, EstimateDaysMax: 7},
		{Label: shippingLabelExpress, AmountMinorUnits: p.rates.ExpressRate, EstimateDaysMin: 1, EstimateDaysMax: 2},
	}
	if subtotalMinor >= p.rates.FreeThreshold {
		free := domain.ShippingOption{Label: shippingLabelFree, AmountMinorUnits: 0, EstimateDaysMin: 5, EstimateDaysMax: 7}
		options = append([]domain.ShippingOption{free}, options...)
	}
	return options
}
