package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile       = ".env"
	defaultPort          = "8080"
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultIdleTimeout   = 120 * time.Second
	defaultCurrency      = "usd"
	defaultCatalogFile   = "config/catalog.yaml"
	defaultStandardRate  = 500
	defaultExpressRate   = 1500
	defaultFreeThreshold = 15000
	defaultMetadataTag   = "web"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Stripe    StripeConfig
	Site      SiteConfig
	Checkout  CheckoutConfig
	Shipping  ShippingConfig
	Mail      MailConfig
	Marketing MarketingConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StripeConfig collects payment-provider credentials. Both fields are
// mandatory: the webhook secret in particular must be present so event
// verification can never fall back to trusting unsigned payloads.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// SiteConfig holds the storefront base URL and the CORS origin allow-list.
type SiteConfig struct {
	BaseURL        string
	AllowedOrigins []string
}

// CheckoutConfig tunes session construction.
type CheckoutConfig struct {
	Currency    string
	CatalogFile string
	SourceTag   string
}

// ShippingConfig defines the fixed shipping policy in minor units.
type ShippingConfig struct {
	StandardRate  int64
	ExpressRate   int64
	FreeThreshold int64
}

// MailConfig configures the transactional email provider. An empty API key
// degrades dispatch to a logged no-op.
type MailConfig struct {
	ResendAPIKey      string
	FromAddress       string
	InternalRecipient string
}

// MarketingConfig identifies the subscription audience. Empty disables the
// subscribe endpoint's upstream call.
type MarketingConfig struct {
	ResendAPIKey string
	AudienceID   string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env
// overrides, and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Stripe: StripeConfig{
			SecretKey:     stringWithDefault(lookup, "API_STRIPE_SECRET_KEY", ""),
			WebhookSecret: stringWithDefault(lookup, "API_STRIPE_WEBHOOK_SECRET", ""),
		},
		Site: SiteConfig{
			BaseURL:        strings.TrimRight(stringWithDefault(lookup, "API_SITE_BASE_URL", ""), "/"),
			AllowedOrigins: csvWithDefault(lookup, "API_CORS_ALLOWED_ORIGINS"),
		},
		Checkout: CheckoutConfig{
			Currency:    strings.ToLower(stringWithDefault(lookup, "API_CHECKOUT_CURRENCY", defaultCurrency)),
			CatalogFile: stringWithDefault(lookup, "API_CATALOG_FILE", defaultCatalogFile),
			SourceTag:   stringWithDefault(lookup, "API_CHECKOUT_SOURCE_TAG", defaultMetadataTag),
		},
		Shipping: ShippingConfig{
			StandardRate:  int64WithDefault(lookup, "API_SHIPPING_FLAT_RATE", defaultStandardRate),
			ExpressRate:   int64WithDefault(lookup, "API_SHIPPING_EXPRESS_RATE", defaultExpressRate),
			FreeThreshold: int64WithDefault(lookup, "API_SHIPPING_FREE_THRESHOLD", defaultFreeThreshold),
		},
		Mail: MailConfig{
			ResendAPIKey:      stringWithDefault(lookup, "API_MAIL_RESEND_API_KEY", ""),
			FromAddress:       stringWithDefault(lookup, "API_MAIL_FROM", ""),
			InternalRecipient: stringWithDefault(lookup, "API_MAIL_INTERNAL_RECIPIENT", ""),
		},
	}

	// The marketing audience lives in the same Resend account as
	// transactional mail unless its own key is supplied.
	cfg.Marketing = MarketingConfig{
		ResendAPIKey: stringWithDefault(lookup, "API_MARKETING_RESEND_API_KEY", cfg.Mail.ResendAPIKey),
		AudienceID:   stringWithDefault(lookup, "API_MARKETING_AUDIENCE_ID", ""),
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if strings.TrimSpace(cfg.Stripe.SecretKey) == "" {
		missing = append(missing, "Stripe.SecretKey")
	}
	if strings.TrimSpace(cfg.Stripe.WebhookSecret) == "" {
		missing = append(missing, "Stripe.WebhookSecret")
	}
	if strings.TrimSpace(cfg.Site.BaseURL) == "" {
		missing = append(missing, "Site.BaseURL")
	}
	if strings.TrimSpace(cfg.Checkout.CatalogFile) == "" {
		missing = append(missing, "Checkout.CatalogFile")
	}
	if cfg.Shipping.StandardRate < 0 || cfg.Shipping.ExpressRate < 0 {
		missing = append(missing, "Shipping.Rates")
	}
	if cfg.Shipping.FreeThreshold < 0 {
		missing = append(missing, "Shipping.FreeThreshold")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func int64WithDefault(lookup func(string) (string, bool), key string, fallback int64) int64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
