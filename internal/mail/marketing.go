package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/driftwear/checkout-api/internal/platform/observability"
)

// Contact is a marketing-list entry to register.
type Contact struct {
	Email     string
	FirstName string
	LastName  string
}

// ContactRegistrar adds a contact to the configured marketing audience.
type ContactRegistrar interface {
	Register(ctx context.Context, contact Contact) (string, error)
}

type resendContactAPI interface {
	CreateWithContext(ctx context.Context, params *resend.CreateContactRequest) (resend.CreateContactResponse, error)
}

// ResendRegistrar registers contacts against a Resend audience.
type ResendRegistrar struct {
	contacts   resendContactAPI
	audienceID string
}

// NewResendRegistrar constructs a registrar for the given API key and audience.
func NewResendRegistrar(apiKey, audienceID string) (*ResendRegistrar, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("mail: resend api key is required")
	}
	audienceID = strings.TrimSpace(audienceID)
	if audienceID == "" {
		return nil, errors.New("mail: audience id is required")
	}
	client := resend.NewClient(apiKey)
	return &ResendRegistrar{contacts: client.Contacts, audienceID: audienceID}, nil
}

// newResendRegistrarWithAPI supports injecting a stub API in tests.
func newResendRegistrarWithAPI(api resendContactAPI, audienceID string) *ResendRegistrar {
	return &ResendRegistrar{contacts: api, audienceID: audienceID}
}

// Register implements ContactRegistrar.
func (r *ResendRegistrar) Register(ctx context.Context, contact Contact) (string, error) {
	if r == nil || r.contacts == nil {
		return "", errors.New("mail: registrar not configured")
	}
	email := strings.TrimSpace(contact.Email)
	if email == "" {
		return "", errors.New("mail: contact email is required")
	}
	created, err := r.contacts.CreateWithContext(ctx, &resend.CreateContactRequest{
		Email:      email,
		AudienceId: r.audienceID,
		FirstName:  strings.TrimSpace(contact.FirstName),
		LastName:   strings.TrimSpace(contact.LastName),
	})
	if err != nil {
		return "", fmt.Errorf("mail: resend contact create: %w", err)
	}
	return created.Id, nil
}

// NopRegistrar is used when no marketing audience is configured: registration
// degrades to a log line instead of an error.
type NopRegistrar struct {
	logger *zap.Logger
}

// NewNopRegistrar constructs a logging no-op registrar.
func NewNopRegistrar(logger *zap.Logger) *NopRegistrar {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NopRegistrar{logger: logger}
}

// Register implements ContactRegistrar by logging and discarding the contact.
func (r *NopRegistrar) Register(_ context.Context, contact Contact) (string, error) {
	r.logger.Info("marketing registration skipped: no audience configured",
		zap.String("email", observability.RedactEmail(contact.Email)),
	)
	return "", nil
}
