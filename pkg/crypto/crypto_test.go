package crypto

import (
	"strings"
	"testing"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	if len(token) == 0 {
		t.Fatal("expected token to be non-empty")
	}
}

func TestGenerateCodeUsesAlphabet(t *testing.T) {
	code, err := GenerateCode(12, "")
	if err != nil {
		t.Fatalf("code error: %v", err)
	}
	if len(code) != 12 {
		t.Fatalf("expected 12 characters, got %d", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(CodeAlphabet, r) {
			t.Fatalf("unexpected character %q in %q", r, code)
		}
	}

	custom, err := GenerateCode(6, "ab")
	if err != nil {
		t.Fatalf("code error: %v", err)
	}
	if strings.Trim(custom, "ab") != "" {
		t.Fatalf("expected only a/b characters, got %q", custom)
	}
}

func TestGenerateCodeRejectsInvalidLength(t *testing.T) {
	if _, err := GenerateCode(0, ""); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestGenerateCodeVaries(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := GenerateCode(12, "")
		if err != nil {
			t.Fatalf("code error: %v", err)
		}
		seen[code] = struct{}{}
	}
	if len(seen) != 50 {
		t.Fatalf("expected 50 distinct codes, got %d", len(seen))
	}
}

func TestHashIdentifierIsKeyed(t *testing.T) {
	a, err := HashIdentifier([]byte("key-one"), "97000000")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	again, err := HashIdentifier([]byte("key-one"), "97000000")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	b, err := HashIdentifier([]byte("key-two"), "97000000")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}

	if a != again {
		t.Fatal("expected hashing to be deterministic for the same key")
	}
	if a == b {
		t.Fatal("expected different keys to produce different digests")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(a))
	}
}

func TestMaskTrailing(t *testing.T) {
	if got := MaskTrailing("97000012", 2); got != "******12" {
		t.Fatalf("unexpected mask: %s", got)
	}
	if got := MaskTrailing("12", 4); got != "12" {
		t.Fatalf("short values should be returned as-is, got %s", got)
	}
}
