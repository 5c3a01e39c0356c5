package authutil

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw   string
		want error
	}{
		{"short", ErrPasswordTooShort},
		{"exactly8", nil},
		{"pässwörd", nil},
		{strings.Repeat("x", 73), ErrPasswordTooLong},
	}
	for _, tc := range tests {
		if got := ValidatePassword(tc.pw); got != tc.want {
			t.Errorf("ValidatePassword(%q) = %v, want %v", tc.pw, got, tc.want)
		}
	}
}

func TestHashAndCheck(t *testing.T) {
	h, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(h, "correct horse") {
		t.Error("expected password to match")
	}
	if CheckPassword(h, "wrong horse!") {
		t.Error("expected mismatch")
	}
	if CheckPassword("", "anything") {
		t.Error("empty hash must never match")
	}
	if _, err := HashPassword("short"); err == nil {
		t.Error("expected validation error")
	}
}

func TestUnusableHash(t *testing.T) {
	h, err := UnusableHash()
	if err != nil {
		t.Fatalf("UnusableHash: %v", err)
	}
	if CheckPassword(h, "") || CheckPassword(h, "password123") {
		t.Error("unusable hash matched a guess")
	}
}
