package observability

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/driftwear/checkout-api/internal/platform/requestctx"
)

func TestEventLoggerUsesRequestScopedLogger(t *testing.T) {
	baseCore, baseLogs := observer.New(zap.InfoLevel)
	scopedCore, scopedLogs := observer.New(zap.InfoLevel)

	events := EventLogger(zap.New(baseCore))
	scoped := zap.New(scopedCore).With(zap.String("request_id", "req_1"))
	ctx := requestctx.WithLogger(context.Background(), scoped)

	events(ctx, "checkout.session_created", map[string]any{"session_id": "cs_1"})

	if baseLogs.Len() != 0 {
		t.Fatalf("expected base logger to stay quiet, got %d entries", baseLogs.Len())
	}
	entries := scopedLogs.All()
	if len(entries) != 1 || entries[0].Message != "checkout.session_created" {
		t.Fatalf("unexpected scoped entries: %+v", entries)
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req_1" || fields["session_id"] != "cs_1" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestEventLoggerFallsBackToBaseLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	events := EventLogger(zap.New(core))

	events(context.Background(), "mail.dispatched", map[string]any{"order_reference": "C3D4E5F6"})

	entries := logs.All()
	if len(entries) != 1 || entries[0].Message != "mail.dispatched" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].ContextMap()["order_reference"] != "C3D4E5F6" {
		t.Fatalf("unexpected fields: %+v", entries[0].ContextMap())
	}
}

func TestEventLoggerNilLogger(t *testing.T) {
	events := EventLogger(nil)
	events(context.Background(), "noop", nil)
}
