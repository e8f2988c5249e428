package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// Tests use the minimum bcrypt cost — the default cost 12 takes ~250ms
// per hash, which would make this file crawl.
func newTestPasswordService(t *testing.T) *PasswordService {
	t.Helper()
	return NewPasswordServiceForTest(bcrypt.MinCost)
}

func TestHash_ProducesBcryptHash(t *testing.T) {
	ps := newTestPasswordService(t)

	hash, err := ps.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("hash = %q, want bcrypt $2a$ prefix", hash)
	}
}

func TestHash_SamePasswordDifferentHashes(t *testing.T) {
	ps := newTestPasswordService(t)

	h1, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// The embedded random salt means two hashes of the same password
	// must differ.
	if h1 == h2 {
		t.Error("two hashes of the same password are identical — salt missing?")
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	ps := newTestPasswordService(t)

	if _, err := ps.Hash(strings.Repeat("x", 73)); err == nil {
		t.Fatal("Hash() should reject passwords over 72 bytes")
	}
}

func TestVerify_Match(t *testing.T) {
	ps := newTestPasswordService(t)

	hash, err := ps.Hash("secret-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, "secret-password"); err != nil {
		t.Errorf("Verify() with correct password: %v", err)
	}
}

func TestVerify_Mismatch(t *testing.T) {
	ps := newTestPasswordService(t)

	hash, err := ps.Hash("secret-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, "wrong-password"); err == nil {
		t.Error("Verify() with wrong password should fail")
	}
}

func TestVerify_NotAHash(t *testing.T) {
	ps := newTestPasswordService(t)

	if err := ps.Verify("plainly not a bcrypt hash", "whatever"); err == nil {
		t.Error("Verify() against a malformed hash should fail")
	}
}
