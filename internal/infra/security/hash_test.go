package security

import (
	"strings"
	"testing"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	hasher, err := NewPasswordHasher(DefaultArgon2Config())
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}

	encoded, err := hasher.Hash("correct horse 9")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "argon2id$v=19$") {
		t.Fatalf("unexpected encoded format: %s", encoded)
	}

	ok, err := hasher.Verify("correct horse 9", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}

	ok, err = hasher.Verify("wrong password 9", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("expected mismatched password to fail verification")
	}
}

func TestPasswordHasherRejectsMalformedHash(t *testing.T) {
	hasher, err := NewPasswordHasher(DefaultArgon2Config())
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}

	for _, encoded := range []string{"plaintext", "argon2id$v=19$m=65536,t=3,p=4$short", "a$b$c$d$e"} {
		if _, err := hasher.Verify("password1", encoded); err == nil {
			t.Fatalf("encoded %q: expected error", encoded)
		}
	}
}

func TestPasswordHasherEmptyInputs(t *testing.T) {
	hasher, err := NewPasswordHasher(DefaultArgon2Config())
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}

	ok, err := hasher.Verify("", "anything")
	if err != nil || ok {
		t.Fatalf("expected (false, nil) for empty password, got (%v, %v)", ok, err)
	}
}

func TestGenerateSecureTokenLengthAndUniqueness(t *testing.T) {
	first, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken: %v", err)
	}
	second, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct token values")
	}
	// 32 bytes encode to 43 base64url characters without padding.
	if len(first) != 43 {
		t.Fatalf("expected 43-character token, got %d", len(first))
	}
}

func TestHashTokenIsDeterministic(t *testing.T) {
	if HashToken("value") != HashToken("value") {
		t.Fatal("expected stable hash for identical input")
	}
	if HashToken("value") == HashToken("other") {
		t.Fatal("expected distinct hashes for distinct input")
	}
}
