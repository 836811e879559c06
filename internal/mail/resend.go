package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

type resendEmailAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender dispatches messages through the Resend transactional email API.
type ResendSender struct {
	emails resendEmailAPI
	from   string
}

// NewResendSender constructs a sender for the given API key and from address.
func NewResendSender(apiKey, from string) (*ResendSender, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("mail: resend api key is required")
	}
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, errors.New("mail: from address is required")
	}
	client := resend.NewClient(apiKey)
	return &ResendSender{emails: client.Emails, from: from}, nil
}

// newResendSenderWithAPI supports injecting a stub API in tests.
func newResendSenderWithAPI(api resendEmailAPI, from string) *ResendSender {
	return &ResendSender{emails: api, from: from}
}

// Send implements Sender.
func (s *ResendSender) Send(ctx context.Context, to []string, msg Message) (string, error) {
	if s == nil || s.emails == nil {
		return "", errors.New("mail: sender not configured")
	}
	recipients := make([]string, 0, len(to))
	for _, address := range to {
		if trimmed := strings.TrimSpace(address); trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	if len(recipients) == 0 {
		return "", errors.New("mail: no recipients")
	}

	sent, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      recipients,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("mail: resend send: %w", err)
	}
	return sent.Id, nil
}
