package mail

import (
	"strings"
	"testing"

	"github.com/driftwear/checkout-api/internal/domain"
)

func sampleRecord() domain.CompletedSessionRecord {
	return domain.CompletedSessionRecord{
		SessionID:      "cs_test_a1B2c3D4e5F6",
		Currency:       "usd",
		AmountSubtotal: 4000,
		AmountShipping: 500,
		AmountTotal:    4500,
		CustomerName:   "Jordan Doe",
		CustomerEmail:  "jordan@example.com",
		ShippingAddress: domain.PostalAddress{
			Line1:      "123 Pine St",
			City:       "Portland",
			State:      "OR",
			PostalCode: "97201",
			Country:    "US",
		},
		Lines: []domain.PurchasedLine{
			{Description: "Black Tee", Quantity: 2, AmountMinorUnits: 4000},
		},
		MetadataVariantsBySKU: map[string]string{"TEE-BLK": "M"},
	}
}

func TestRenderDeterministicAmounts(t *testing.T) {
	renderer := NewRenderer()

	msg, err := renderer.Render(sampleRecord())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	if !strings.Contains(msg.Subject, "C3D4E5F6") {
		t.Fatalf("expected order reference in subject, got %q", msg.Subject)
	}
	for _, want := range []string{"US$40.00", "US$5.00", "US$45.00"} {
		if !strings.Contains(msg.HTML, want) {
			t.Fatalf("expected %q in rendered html", want)
		}
	}
	if !strings.Contains(msg.HTML, "Black Tee") {
		t.Fatal("expected line description in rendered html")
	}
	if !strings.Contains(msg.HTML, "TEE-BLK size: M") {
		t.Fatal("expected variant summary in rendered html")
	}
	if !strings.Contains(msg.HTML, "123 Pine St") || !strings.Contains(msg.HTML, "Portland, OR, 97201") {
		t.Fatal("expected shipping address in rendered html")
	}

	again, err := renderer.Render(sampleRecord())
	if err != nil {
		t.Fatalf("second render failed: %v", err)
	}
	if again.HTML != msg.HTML || again.Subject != msg.Subject {
		t.Fatal("expected identical output for identical input")
	}
}

func TestRenderEscapesFreeText(t *testing.T) {
	renderer := NewRenderer()
	record := sampleRecord()
	record.CustomerName = `<script>alert("xss")</script>Mallory`
	record.Lines[0].Description = `Tee <img src=x onerror=alert(1)>`

	msg, err := renderer.Render(record)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	for _, forbidden := range []string{"<script", "onerror", "<img"} {
		if strings.Contains(msg.HTML, forbidden) {
			t.Fatalf("rendered html contains executable markup %q", forbidden)
		}
	}
	if !strings.Contains(msg.HTML, "Mallory") {
		t.Fatal("expected benign remainder of the name to survive")
	}
}

func TestRenderMissingCustomerName(t *testing.T) {
	renderer := NewRenderer()
	record := sampleRecord()
	record.CustomerName = "   "

	msg, err := renderer.Render(record)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(msg.HTML, "Customer") {
		t.Fatal("expected fallback customer greeting")
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		minor    int64
		currency string
		want     string
	}{
		{4500, "usd", "US$45.00"},
		{99, "usd", "US$0.99"},
		{0, "usd", "US$0.00"},
		{150000, "usd", "US$1500.00"},
		{2000, "eur", "€20.00"},
		{2000, "zzz", "ZZZ 20.00"},
		{2000, "", "20.00"},
		{-250, "usd", "US$-2.50"},
	}

	for _, tc := range cases {
		if got := FormatAmount(tc.minor, tc.currency); got != tc.want {
			t.Errorf("FormatAmount(%d, %q) = %q, want %q", tc.minor, tc.currency, got, tc.want)
		}
	}
}
