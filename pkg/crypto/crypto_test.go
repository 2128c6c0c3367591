package crypto

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}

	if !VerifyPassword(hash, "secret") {
		t.Fatal("expected password verification to succeed")
	}

	if VerifyPassword(hash, "incorrect") {
		t.Fatal("expected password verification to fail")
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("cost error: %v", err)
	}
	if cost != PasswordHashCost {
		t.Fatalf("expected cost %d, got %d", PasswordHashCost, cost)
	}
}

func TestGenerateTokenLengthAndUniqueness(t *testing.T) {
	first, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	second, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct tokens")
	}
	// 32 random bytes encode to 43 base64url characters.
	if len(first) != 43 {
		t.Fatalf("unexpected token length %d", len(first))
	}
}

func TestGeneratePIN(t *testing.T) {
	pin, err := GeneratePIN(6)
	if err != nil {
		t.Fatalf("generate pin: %v", err)
	}

	if len(pin) != 6 {
		t.Fatalf("expected 6 digits, got %d", len(pin))
	}
	if strings.Trim(pin, "0123456789") != "" {
		t.Fatalf("expected numeric pin, got %q", pin)
	}
}

func TestGeneratePINDefaultsToSixDigits(t *testing.T) {
	pin, err := GeneratePIN(0)
	if err != nil {
		t.Fatalf("generate pin: %v", err)
	}
	if len(pin) != 6 {
		t.Fatalf("expected default length 6, got %d", len(pin))
	}
}
