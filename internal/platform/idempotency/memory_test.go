package idempotency

import (
	"context"
	"testing"
	"time"
)

func TestMarkProcessedFirstAndRepeat(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := store.MarkProcessed(context.Background(), "cs_test_abc", now, time.Hour)
	if err != nil {
		t.Fatalf("first mark failed: %v", err)
	}
	if !first {
		t.Fatal("expected first delivery to be newly recorded")
	}

	repeat, err := store.MarkProcessed(context.Background(), "cs_test_abc", now.Add(time.Minute), time.Hour)
	if err != nil {
		t.Fatalf("repeat mark failed: %v", err)
	}
	if repeat {
		t.Fatal("expected repeat delivery to be reported as already processed")
	}
}

func TestMarkProcessedExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.MarkProcessed(context.Background(), "cs_test_abc", now, time.Minute); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	later := now.Add(2 * time.Minute)
	fresh, err := store.MarkProcessed(context.Background(), "cs_test_abc", later, time.Minute)
	if err != nil {
		t.Fatalf("mark after expiry failed: %v", err)
	}
	if !fresh {
		t.Fatal("expected expired key to be treated as new")
	}
	if store.Len() != 1 {
		t.Fatalf("expected expired record to be purged, len=%d", store.Len())
	}
}

func TestMarkProcessedRequiresKey(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.MarkProcessed(context.Background(), "", time.Now(), time.Hour); err == nil {
		t.Fatal("expected error for empty key")
	}
}
