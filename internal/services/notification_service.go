package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/driftwear/checkout-api/internal/domain"
	"github.com/driftwear/checkout-api/internal/mail"
	"github.com/driftwear/checkout-api/internal/payments"
	"github.com/driftwear/checkout-api/internal/platform/idempotency"
	"github.com/driftwear/checkout-api/internal/platform/observability"
)

// ErrNotificationUnavailable indicates the provider could not supply the
// completed session, so the notification could not even be attempted.
var ErrNotificationUnavailable = errors.New("notification: session unavailable")

// sessionReader is the slice of payments.Provider the notifier needs.
type sessionReader interface {
	GetSession(ctx context.Context, id string) (payments.SessionDetails, error)
}

// NotificationServiceDeps wires the dependencies required by the notifier.
type NotificationServiceDeps struct {
	Payments          sessionReader
	Renderer          *mail.Renderer
	Sender            mail.Sender
	InternalRecipient string
	Dedupe            idempotency.Store
	DedupeTTL         time.Duration
	Clock             func() time.Time
	Logger            func(ctx context.Context, event string, fields map[string]any)
}

type notificationService struct {
	payments          sessionReader
	renderer          *mail.Renderer
	sender            mail.Sender
	internalRecipient string
	dedupe            idempotency.Store
	dedupeTTL         time.Duration
	now               func() time.Time
	logger            func(ctx context.Context, event string, fields map[string]any)
}

// NewNotificationService constructs a NotificationService validating required dependencies.
func NewNotificationService(deps NotificationServiceDeps) (NotificationService, error) {
	if deps.Payments == nil {
		return nil, errors.New("notification service: payment provider is required")
	}
	if deps.Renderer == nil {
		return nil, errors.New("notification service: renderer is required")
	}
	if deps.Sender == nil {
		return nil, errors.New("notification service: sender is required")
	}
	if deps.Dedupe == nil {
		return nil, errors.New("notification service: dedupe store is required")
	}
	ttl := deps.DedupeTTL
	if ttl <= 0 {
		ttl = idempotency.DefaultTTL
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &notificationService{
		payments:          deps.Payments,
		renderer:          deps.Renderer,
		sender:            deps.Sender,
		internalRecipient: strings.TrimSpace(deps.InternalRecipient),
		dedupe:            deps.Dedupe,
		dedupeTTL:         ttl,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// HandleSessionCompleted dispatches order confirmation email for a completed
// checkout session. Deliveries are deduplicated per session id; duplicate
// webhook retries within the TTL become no-ops. Dispatch failures are logged
// and swallowed so the provider never retries a payment that already settled.
func (s *notificationService) HandleSessionCompleted(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return errors.New("notification: session id is required")
	}

	details, err := s.payments.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationUnavailable, err)
	}

	first, err := s.dedupe.MarkProcessed(ctx, sessionID, s.now(), s.dedupeTTL)
	if err != nil {
		return fmt.Errorf("notification: dedupe store: %w", err)
	}
	if !first {
		s.logger(ctx, "notification.duplicate_skipped", map[string]any{"session_id": sessionID})
		return nil
	}

	record := buildCompletedRecord(details)
	msg, err := s.renderer.Render(record)
	if err != nil {
		s.logger(ctx, "notification.render_failed", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil
	}

	if record.CustomerEmail != "" {
		s.dispatch(ctx, sessionID, "customer", []string{record.CustomerEmail}, msg)
	}
	if s.internalRecipient != "" {
		s.dispatch(ctx, sessionID, "internal", []string{s.internalRecipient}, msg)
	}
	return nil
}

func (s *notificationService) dispatch(ctx context.Context, sessionID, audience string, to []string, msg mail.Message) {
	dispatchID := ulid.MustNew(ulid.Timestamp(s.now()), ulid.DefaultEntropy()).String()
	providerID, err := s.sender.Send(ctx, to, msg)
	fields := map[string]any{
		"session_id":  sessionID,
		"audience":    audience,
		"dispatch_id": dispatchID,
		"to":          redactAll(to),
	}
	if err != nil {
		fields["error"] = err.Error()
		s.logger(ctx, "notification.dispatch_failed", fields)
		return
	}
	if providerID != "" {
		fields["provider_message_id"] = providerID
	}
	s.logger(ctx, "notification.dispatched", fields)
}

// buildCompletedRecord projects provider session details into the record the
// renderer consumes, lifting size_<sku> metadata into a per-SKU variant map.
func buildCompletedRecord(details payments.SessionDetails) domain.CompletedSessionRecord {
	record := domain.CompletedSessionRecord{
		SessionID:       details.ID,
		Currency:        details.Currency,
		AmountSubtotal:  details.AmountSubtotal,
		AmountShipping:  details.AmountShipping,
		AmountTotal:     details.AmountTotal,
		CustomerName:    strings.TrimSpace(details.CustomerName),
		CustomerEmail:   strings.TrimSpace(details.CustomerEmail),
		ShippingAddress: details.ShippingAddress,
		Lines:           details.Lines,
	}
	for key, value := range details.Metadata {
		if !strings.HasPrefix(key, metadataVariantPrefix) {
			continue
		}
		sku := strings.ToUpper(strings.TrimPrefix(key, metadataVariantPrefix))
		value = strings.TrimSpace(value)
		if sku == "" || value == "" {
			continue
		}
		if record.MetadataVariantsBySKU == nil {
			record.MetadataVariantsBySKU = make(map[string]string)
		}
		record.MetadataVariantsBySKU[sku] = value
	}
	return record
}

func redactAll(addresses []string) []string {
	out := make([]string, 0, len(addresses))
	for _, address := range addresses {
		out = append(out, observability.RedactEmail(address))
	}
	return out
}
