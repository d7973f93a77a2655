package api

import (
	"testing"
)

func TestNewRequestID(t *testing.T) {
	id := NewRequestID()
	if !ValidateRequestID(id) {
		t.Errorf("NewRequestID() = %q, want valid request ID", id)
	}
}

func TestNewRequestIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRequestID()
		if seen[id] {
			t.Fatalf("duplicate request ID %q", id)
		}
		seen[id] = true
	}
}

func TestValidateRequestID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid", "codex_0123456789abcdef0123456789abcdef", true},
		{"uppercase hex", "codex_0123456789ABCDEF0123456789ABCDEF", false},
		{"wrong prefix", "resp_0123456789abcdef0123456789abcdef", false},
		{"with dashes", "codex_01234567-89ab-cdef-0123-456789abcdef", false},
		{"too short", "codex_abc", false},
		{"empty", "", false},
		{"prefix only", "codex_", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateRequestID(tt.id); got != tt.want {
				t.Errorf("ValidateRequestID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
