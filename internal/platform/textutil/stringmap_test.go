package textutil

import "testing"

func TestNormalizeStringMap(t *testing.T) {
	in := map[string]string{
		"  source ":    " web ",
		"":             "dropped",
		"size_TEE-BLK": "M",
		"empty":        "   ",
	}
	out := NormalizeStringMap(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(out), out)
	}
	if out["source"] != "web" {
		t.Fatalf("expected trimmed source=web, got %q", out["source"])
	}
	if out["size_TEE-BLK"] != "M" {
		t.Fatalf("expected size_TEE-BLK=M, got %q", out["size_TEE-BLK"])
	}
}

func TestNormalizeStringMapEmpty(t *testing.T) {
	if out := NormalizeStringMap(nil); out != nil {
		t.Fatalf("expected nil for nil input, got %v", out)
	}
	if out := NormalizeStringMap(map[string]string{" ": " "}); out != nil {
		t.Fatalf("expected nil for all-empty input, got %v", out)
	}
}
