package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/driftwear/checkout-api/internal/platform/observability"
)

// Message is a fully-formed email ready for dispatch.
type Message struct {
	Subject string
	HTML    string
}

// Sender dispatches a message to the given recipients. Implementations own
// delivery, retries, and bounce handling.
type Sender interface {
	Send(ctx context.Context, to []string, msg Message) (string, error)
}

// NopSender is used when no email credential is configured: dispatch degrades
// to a log line so checkout never fails because notification is unavailable.
type NopSender struct {
	logger *zap.Logger
}

// NewNopSender constructs a logging no-op sender.
func NewNopSender(logger *zap.Logger) *NopSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NopSender{logger: logger}
}

// Send implements Sender by logging and discarding the message.
func (s *NopSender) Send(_ context.Context, to []string, msg Message) (string, error) {
	redacted := make([]string, 0, len(to))
	for _, address := range to {
		redacted = append(redacted, observability.RedactEmail(address))
	}
	s.logger.Info("mail dispatch skipped: no provider configured",
		zap.Strings("to", redacted),
		zap.String("subject", msg.Subject),
	)
	return "", nil
}
