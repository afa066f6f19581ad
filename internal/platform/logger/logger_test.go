package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"password", "hunter2",
		"user_id", "8b0c6a3e-0000-0000-0000-000000000001",
		"food", "banana",
		"dangling",
	})
	if len(out) != 7 {
		t.Fatalf("expected 7 values, got %d: %v", len(out), out)
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("password not redacted: %v", out[1])
	}
	if s, ok := out[3].(string); !ok || !strings.HasPrefix(s, "hash:") {
		t.Fatalf("user_id not hashed: %v", out[3])
	}
	if out[5] != "banana" {
		t.Fatalf("plain value changed: %v", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("dangling key dropped: %v", out[6])
	}
}

func TestHashValueStable(t *testing.T) {
	a := hashValue("consultation-1")
	b := hashValue("consultation-1")
	if a != b || a == "" {
		t.Fatalf("hash not stable: %q vs %q", a, b)
	}
	if hashValue("") != "" {
		t.Fatalf("empty input should hash to empty string")
	}
}
