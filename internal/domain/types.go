package domain

// CartLine is a single client-submitted cart entry. SKURaw may encode a
// variant as "<baseSku>--<variantTag>"; any client-supplied pricing fields
// are dropped during decoding and never reach this type.
type CartLine struct {
	SKURaw   string
	Quantity int
}

// NormalizedLine is a cart line resolved against the catalog: a base SKU, an
// optional upper-cased variant tag, and a quantity clamped to [1, 99].
type NormalizedLine struct {
	BaseSKU  string
	Variant  string
	Quantity int
}

// ShippingOption describes one shipping tier offered to the payer. Options
// are presented in slice order.
type ShippingOption struct {
	Label            string
	AmountMinorUnits int64
	EstimateDaysMin  int64
	EstimateDaysMax  int64
}

// PostalAddress mirrors the shipping address reported by the payment
// provider on a completed session.
type PostalAddress struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// PurchasedLine is one line description from a completed session.
type PurchasedLine struct {
	Description      string
	Quantity         int64
	AmountMinorUnits int64
}

// CompletedSessionRecord is the read-only projection of a provider session
// consumed once per webhook delivery.
type CompletedSessionRecord struct {
	SessionID             string
	Currency              string
	AmountSubtotal        int64
	AmountShipping        int64
	AmountTotal           int64
	CustomerName          string
	CustomerEmail         string
	ShippingAddress       PostalAddress
	Lines                 []PurchasedLine
	MetadataVariantsBySKU map[string]string
}
