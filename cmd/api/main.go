package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/driftwear/checkout-api/internal/catalog"
	"github.com/driftwear/checkout-api/internal/handlers"
	"github.com/driftwear/checkout-api/internal/mail"
	"github.com/driftwear/checkout-api/internal/payments"
	"github.com/driftwear/checkout-api/internal/platform/config"
	"github.com/driftwear/checkout-api/internal/platform/idempotency"
	"github.com/driftwear/checkout-api/internal/platform/observability"
	"github.com/driftwear/checkout-api/internal/services"
)

const shutdownGrace = 15 * time.Second

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("api")

	cfg, err := config.Load(config.WithEnvFile(".env"))
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("missing required configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	cat, err := catalog.Load(cfg.Checkout.CatalogFile)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.String("path", cfg.Checkout.CatalogFile), zap.Error(err))
	}
	logger.Info("catalog loaded", zap.String("path", cfg.Checkout.CatalogFile), zap.Int("entries", cat.Len()))

	events := observability.EventLogger(logger)

	provider, err := payments.NewStripeProvider(payments.StripeProviderConfig{
		APIKey: cfg.Stripe.SecretKey,
		Logger: events,
	})
	if err != nil {
		logger.Fatal("failed to initialise payment provider", zap.Error(err))
	}

	verifier, err := payments.NewWebhookVerifier(cfg.Stripe.WebhookSecret)
	if err != nil {
		logger.Fatal("failed to initialise webhook verifier", zap.Error(err))
	}

	var sender mail.Sender
	if cfg.Mail.ResendAPIKey != "" {
		resendSender, err := mail.NewResendSender(cfg.Mail.ResendAPIKey, cfg.Mail.FromAddress)
		if err != nil {
			logger.Fatal("failed to initialise mail sender", zap.Error(err))
		}
		sender = resendSender
	} else {
		logger.Warn("no mail credential configured, order emails will be logged and dropped")
		sender = mail.NewNopSender(logger)
	}

	var registrar mail.ContactRegistrar
	if cfg.Marketing.ResendAPIKey != "" && cfg.Marketing.AudienceID != "" {
		resendRegistrar, err := mail.NewResendRegistrar(cfg.Marketing.ResendAPIKey, cfg.Marketing.AudienceID)
		if err != nil {
			logger.Fatal("failed to initialise marketing registrar", zap.Error(err))
		}
		registrar = resendRegistrar
	} else {
		logger.Warn("no marketing audience configured, subscriptions will be logged and dropped")
		registrar = mail.NewNopRegistrar(logger)
	}

	cartSvc, err := services.NewCartService(services.CartServiceDeps{Catalog: cat, Logger: events})
	if err != nil {
		logger.Fatal("failed to initialise cart service", zap.Error(err))
	}

	pricing, err := services.NewPricingEngine(cat, services.ShippingRates{
		StandardRate:  cfg.Shipping.StandardRate,
		ExpressRate:   cfg.Shipping.ExpressRate,
		FreeThreshold: cfg.Shipping.FreeThreshold,
	})
	if err != nil {
		logger.Fatal("failed to initialise pricing engine", zap.Error(err))
	}

	checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Catalog:   cat,
		Cart:      cartSvc,
		Pricing:   pricing,
		Payments:  provider,
		Currency:  cfg.Checkout.Currency,
		BaseURL:   cfg.Site.BaseURL,
		SourceTag: cfg.Checkout.SourceTag,
		Logger:    events,
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}

	notifier, err := services.NewNotificationService(services.NotificationServiceDeps{
		Payments:          provider,
		Renderer:          mail.NewRenderer(),
		Sender:            sender,
		InternalRecipient: cfg.Mail.InternalRecipient,
		Dedupe:            idempotency.NewMemoryStore(),
		Logger:            events,
	})
	if err != nil {
		logger.Fatal("failed to initialise notification service", zap.Error(err))
	}

	subscriptions, err := services.NewSubscriptionService(services.SubscriptionServiceDeps{
		Registrar: registrar,
		Logger:    events,
	})
	if err != nil {
		logger.Fatal("failed to initialise subscription service", zap.Error(err))
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			handlers.NewCORSMiddleware(cfg.Site.AllowedOrigins),
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithCheckoutRoutes(handlers.NewCheckoutHandlers(checkoutSvc).Routes),
		handlers.WithWebhookRoutes(handlers.NewWebhookHandlers(verifier, notifier).Routes),
		handlers.WithSubscribeRoutes(handlers.NewSubscribeHandlers(subscriptions).Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal("server error", zap.Error(err))
	case sig := <-stop:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		_ = server.Close()
		return
	}
	logger.Info("server stopped")
}
