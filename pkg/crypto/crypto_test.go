package crypto

import (
	"testing"
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
}

func TestIsBcryptHash(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}

	if !IsBcryptHash(hash) {
		t.Fatalf("expected %q to be detected as bcrypt", hash)
	}

	for _, value := range []string{"", "secret", "$2a$short", "$1$abcdefgh$abcdefghijklmnopqrstuv"} {
		if IsBcryptHash(value) {
			t.Fatalf("did not expect %q to be detected as bcrypt", value)
		}
	}
}

func TestConstantTimeEqual(t *testing.T) {
	if !ConstantTimeEqual("admin", "admin") {
		t.Fatal("expected equal strings to match")
	}
	if ConstantTimeEqual("admin", "Admin") {
		t.Fatal("expected case difference to mismatch")
	}
	if ConstantTimeEqual("admin", "admin ") {
		t.Fatal("expected trailing space to mismatch")
	}
	if ConstantTimeEqual("", "x") {
		t.Fatal("expected empty string not to match")
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	if len(token) == 0 {
		t.Fatal("expected token to be non-empty")
	}

	other, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if token == other {
		t.Fatal("expected tokens to differ")
	}
}
