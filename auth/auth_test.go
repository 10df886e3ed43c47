package auth

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	id, err := GenerateID(16)
	if err != nil {
		t.Fatalf("GenerateID failed: %v", err)
	}
	if len(id) != 32 {
		t.Errorf("Expected 32 hex chars for 16 bytes, got %d", len(id))
	}

	id2, _ := GenerateID(16)
	if id == id2 {
		t.Error("Two generated IDs should not collide")
	}
}

func TestAdminKeyRoundTrip(t *testing.T) {
	key := GenerateAdminKey("election-1", "test-salt")
	if key == "" {
		t.Fatal("Expected non-empty admin key")
	}
	if strings.Contains(key, "=") {
		t.Error("Admin key should have padding trimmed")
	}

	if err := ValidateAdminKey("election-1", key, "test-salt"); err != nil {
		t.Errorf("Valid admin key rejected: %v", err)
	}
	if err := ValidateAdminKey("election-2", key, "test-salt"); err != ErrInvalidAdminKey {
		t.Error("Admin key for another election should be rejected")
	}
	if err := ValidateAdminKey("election-1", key, "other-salt"); err != ErrInvalidAdminKey {
		t.Error("Admin key with wrong salt should be rejected")
	}
}

func TestAccountKeyRoundTrip(t *testing.T) {
	key := GenerateAccountKey("org-1", "test-salt")

	if err := ValidateAccountKey("org-1", key, "test-salt"); err != nil {
		t.Errorf("Valid account key rejected: %v", err)
	}
	if err := ValidateAccountKey("org-2", key, "test-salt"); err != ErrInvalidAccountKey {
		t.Error("Account key for another organizer should be rejected")
	}
}

func TestAdminAndAccountKeysDiffer(t *testing.T) {
	// Same subject ID must not produce interchangeable keys
	admin := GenerateAdminKey("abc", "salt")
	account := GenerateAccountKey("abc", "salt")
	if admin == account {
		t.Error("Admin and account keys must use distinct HMAC subjects")
	}
}

func TestHashIP(t *testing.T) {
	h1 := HashIP("192.168.1.1", "salt")
	h2 := HashIP("192.168.1.1", "salt")
	h3 := HashIP("192.168.1.2", "salt")

	if h1 != h2 {
		t.Error("Same IP should hash identically")
	}
	if h1 == h3 {
		t.Error("Different IPs should hash differently")
	}
	if len(h1) != 16 {
		t.Errorf("Expected 16 hex chars, got %d", len(h1))
	}
	if h1 == HashIP("192.168.1.1", "other-salt") {
		t.Error("Salt should change the hash")
	}
}
