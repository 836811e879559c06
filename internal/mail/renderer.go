package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/currency"

	"github.com/driftwear/checkout-api/internal/domain"
)

// Renderer assembles deterministic order-confirmation messages. All free-text
// fields pass through a strict sanitization policy before interpolation, so a
// customer name can never inject markup into the rendered email.
type Renderer struct {
	policy   *bluemonday.Policy
	template *template.Template
}

// NewRenderer constructs a renderer with the order confirmation template.
func NewRenderer() *Renderer {
	return &Renderer{
		policy:   bluemonday.StrictPolicy(),
		template: template.Must(template.New("order").Parse(orderTemplate)),
	}
}

type renderedLine struct {
	Description template.HTML
	Quantity    int64
	Amount      string
}

type renderData struct {
	OrderRef     template.HTML
	CustomerName template.HTML
	Lines        []renderedLine
	Variants     []template.HTML
	Subtotal     string
	Shipping     string
	Total        string
	Address      []template.HTML
}

// Render produces the subject and HTML body for a completed session.
func (r *Renderer) Render(record domain.CompletedSessionRecord) (Message, error) {
	ref := orderReference(record.SessionID)

	data := renderData{
		OrderRef:     r.sanitized(ref),
		CustomerName: r.sanitized(strings.TrimSpace(record.CustomerName)),
		Subtotal:     FormatAmount(record.AmountSubtotal, record.Currency),
		Shipping:     FormatAmount(record.AmountShipping, record.Currency),
		Total:        FormatAmount(record.AmountTotal, record.Currency),
	}
	if data.CustomerName == "" {
		data.CustomerName = "Customer"
	}

	for _, line := range record.Lines {
		data.Lines = append(data.Lines, renderedLine{
			Description: r.sanitized(strings.TrimSpace(line.Description)),
			Quantity:    line.Quantity,
			Amount:      FormatAmount(line.AmountMinorUnits, record.Currency),
		})
	}

	for _, sku := range sortedKeys(record.MetadataVariantsBySKU) {
		variant := strings.TrimSpace(record.MetadataVariantsBySKU[sku])
		if variant == "" {
			continue
		}
		data.Variants = append(data.Variants, r.sanitized(fmt.Sprintf("%s size: %s", sku, variant)))
	}

	for _, part := range addressParts(record.ShippingAddress) {
		data.Address = append(data.Address, r.sanitized(part))
	}

	var buf bytes.Buffer
	if err := r.template.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("mail: render order confirmation: %w", err)
	}

	return Message{
		Subject: fmt.Sprintf("Order confirmed (%s)", ref),
		HTML:    buf.String(),
	}, nil
}

// sanitized strips any markup from free text. The result is marked as safe
// HTML because the strict policy has already escaped or removed everything
// that could execute; passing it through template escaping again would
// double-encode entities.
func (r *Renderer) sanitized(value string) template.HTML {
	return template.HTML(r.policy.Sanitize(value))
}

// FormatAmount renders minor units as a fixed two-decimal value with the
// currency symbol, e.g. 4500/"usd" becomes "US$45.00".
func FormatAmount(minorUnits int64, currencyCode string) string {
	negative := minorUnits < 0
	if negative {
		minorUnits = -minorUnits
	}
	value := fmt.Sprintf("%d.%02d", minorUnits/100, minorUnits%100)
	if negative {
		value = "-" + value
	}

	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(currencyCode)))
	if err != nil {
		code := strings.ToUpper(strings.TrimSpace(currencyCode))
		if code == "" {
			return value
		}
		return code + " " + value
	}
	return fmt.Sprintf("%v%s", currency.Symbol(unit), value)
}

func orderReference(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	if len(sessionID) > 8 {
		return strings.ToUpper(sessionID[len(sessionID)-8:])
	}
	return strings.ToUpper(sessionID)
}

func addressParts(address domain.PostalAddress) []string {
	parts := make([]string, 0, 4)
	if line := strings.TrimSpace(address.Line1); line != "" {
		parts = append(parts, line)
	}
	if line := strings.TrimSpace(address.Line2); line != "" {
		parts = append(parts, line)
	}
	locality := strings.TrimSpace(strings.Join(nonEmpty(address.City, address.State, address.PostalCode), ", "))
	if locality != "" {
		parts = append(parts, locality)
	}
	if country := strings.TrimSpace(address.Country); country != "" {
		parts = append(parts, country)
	}
	return parts
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

const orderTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto;">
  <h2>Thanks for your order, {{.CustomerName}}!</h2>
  <p>Order reference: <strong>{{.OrderRef}}</strong></p>
  <table style="width: 100%; border-collapse: collapse;">
    <thead>
      <tr>
        <th style="text-align: left; border-bottom: 1px solid #ddd;">Item</th>
        <th style="text-align: right; border-bottom: 1px solid #ddd;">Qty</th>
        <th style="text-align: right; border-bottom: 1px solid #ddd;">Amount</th>
      </tr>
    </thead>
    <tbody>
      {{- range .Lines}}
      <tr>
        <td style="padding: 4px 0;">{{.Description}}</td>
        <td style="text-align: right;">{{.Quantity}}</td>
        <td style="text-align: right;">{{.Amount}}</td>
      </tr>
      {{- end}}
    </tbody>
  </table>
  {{- if .Variants}}
  <p>
    {{- range .Variants}}
    {{.}}<br>
    {{- end}}
  </p>
  {{- end}}
  <p style="text-align: right; margin-top: 16px;">
    Subtotal: {{.Subtotal}}<br>
    Shipping: {{.Shipping}}<br>
    <strong>Total: {{.Total}}</strong>
  </p>
  {{- if .Address}}
  <h3>Shipping to</h3>
  <p>
    {{- range .Address}}
    {{.}}<br>
    {{- end}}
  </p>
  {{- end}}
  <p style="color: #777; font-size: 12px;">Driftwear, thanks for shopping with us.</p>
</body>
</html>
`
