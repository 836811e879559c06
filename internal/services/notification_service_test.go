package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/driftwear/checkout-api/internal/domain"
	"github.com/driftwear/checkout-api/internal/mail"
	"github.com/driftwear/checkout-api/internal/payments"
	"github.com/driftwear/checkout-api/internal/platform/idempotency"
)

type stubSessionReader struct {
	details payments.SessionDetails
	err     error
	calls   int
}

func (s *stubSessionReader) GetSession(_ context.Context, _ string) (payments.SessionDetails, error) {
	s.calls++
	if s.err != nil {
		return payments.SessionDetails{}, s.err
	}
	return s.details, nil
}

type recordedSend struct {
	to  []string
	msg mail.Message
}

type stubSender struct {
	sends []recordedSend
	err   error
}

func (s *stubSender) Send(_ context.Context, to []string, msg mail.Message) (string, error) {
	s.sends = append(s.sends, recordedSend{to: to, msg: msg})
	if s.err != nil {
		return "", s.err
	}
	return "em_stub", nil
}

func completedDetails() payments.SessionDetails {
	return payments.SessionDetails{
		ID:             "cs_test_abc123",
		Status:         "complete",
		PaymentStatus:  "paid",
		Currency:       "usd",
		AmountSubtotal: 4000,
		AmountShipping: 500,
		AmountTotal:    4500,
		CustomerName:   "Jordan Doe",
		CustomerEmail:  "jordan@example.com",
		Lines: []domain.PurchasedLine{
			{Description: "Black Tee", Quantity: 2, AmountMinorUnits: 4000},
		},
		Metadata: map[string]string{
			"source":       "web",
			"size_tee-blk": "M",
		},
	}
}

func newTestNotificationService(t *testing.T, reader *stubSessionReader, sender *stubSender, internalRecipient string) NotificationService {
	t.Helper()
	svc, err := NewNotificationService(NotificationServiceDeps{
		Payments:          reader,
		Renderer:          mail.NewRenderer(),
		Sender:            sender,
		InternalRecipient: internalRecipient,
		Dedupe:            idempotency.NewMemoryStore(),
		Clock:             func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewNotificationService failed: %v", err)
	}
	return svc
}

func TestHandleSessionCompletedDispatchesBothCopies(t *testing.T) {
	reader := &stubSessionReader{details: completedDetails()}
	sender := &stubSender{}
	svc := newTestNotificationService(t, reader, sender, "orders@driftwear.example")

	if err := svc.HandleSessionCompleted(context.Background(), "cs_test_abc123"); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(sender.sends) != 2 {
		t.Fatalf("expected customer and internal copies, got %d sends", len(sender.sends))
	}
	if sender.sends[0].to[0] != "jordan@example.com" {
		t.Fatalf("expected customer copy first, got %v", sender.sends[0].to)
	}
	if sender.sends[1].to[0] != "orders@driftwear.example" {
		t.Fatalf("expected internal copy, got %v", sender.sends[1].to)
	}
	if !strings.Contains(sender.sends[0].msg.HTML, "TEE-BLK size: M") {
		t.Fatal("expected variant metadata lifted into the email body")
	}
}

func TestHandleSessionCompletedSkipsMissingRecipients(t *testing.T) {
	details := completedDetails()
	details.CustomerEmail = ""
	reader := &stubSessionReader{details: details}
	sender := &stubSender{}
	svc := newTestNotificationService(t, reader, sender, "")

	if err := svc.HandleSessionCompleted(context.Background(), "cs_test_abc123"); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(sender.sends) != 0 {
		t.Fatalf("expected no sends without recipients, got %d", len(sender.sends))
	}
}

func TestHandleSessionCompletedDeduplicatesRetries(t *testing.T) {
	reader := &stubSessionReader{details: completedDetails()}
	sender := &stubSender{}
	svc := newTestNotificationService(t, reader, sender, "")

	for i := 0; i < 3; i++ {
		if err := svc.HandleSessionCompleted(context.Background(), "cs_test_abc123"); err != nil {
			t.Fatalf("attempt %d failed: %v", i, err)
		}
	}
	if len(sender.sends) != 1 {
		t.Fatalf("expected a single dispatch across retries, got %d", len(sender.sends))
	}
}

func TestHandleSessionCompletedSwallowsSendFailure(t *testing.T) {
	reader := &stubSessionReader{details: completedDetails()}
	sender := &stubSender{err: errors.New("resend: 500")}
	svc := newTestNotificationService(t, reader, sender, "orders@driftwear.example")

	if err := svc.HandleSessionCompleted(context.Background(), "cs_test_abc123"); err != nil {
		t.Fatalf("send failure must not surface, got %v", err)
	}
	// both copies were still attempted
	if len(sender.sends) != 2 {
		t.Fatalf("expected both dispatch attempts, got %d", len(sender.sends))
	}
}

func TestHandleSessionCompletedProviderFailure(t *testing.T) {
	reader := &stubSessionReader{err: errors.New("stripe: 503")}
	svc := newTestNotificationService(t, reader, &stubSender{}, "")

	err := svc.HandleSessionCompleted(context.Background(), "cs_test_abc123")
	if !errors.Is(err, ErrNotificationUnavailable) {
		t.Fatalf("expected ErrNotificationUnavailable, got %v", err)
	}
}

func TestBuildCompletedRecordLiftsVariants(t *testing.T) {
	record := buildCompletedRecord(completedDetails())
	if record.MetadataVariantsBySKU["TEE-BLK"] != "M" {
		t.Fatalf("expected lifted variant map, got %v", record.MetadataVariantsBySKU)
	}
	if _, ok := record.MetadataVariantsBySKU["SOURCE"]; ok {
		t.Fatal("source tag must not leak into the variant map")
	}
}
