package control

import (
	"testing"
	"time"

	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

func TestIssueThenVerifyTokenSucceeds(t *testing.T) {
	secret := []byte("grid-secret")
	now := time.Unix(1700000000, 0)

	tok, err := IssueToken(secret, "/transfers/abc", "coordinator-1", time.Hour, now)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if tok.Claims.Subject != "transfer" {
		t.Fatalf("expected subject 'transfer', got %q", tok.Claims.Subject)
	}
	if err := VerifyToken(secret, tok, now.Add(time.Minute)); err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	secret := []byte("grid-secret")
	now := time.Unix(1700000000, 0)
	tok, _ := IssueToken(secret, "/transfers/abc", "coordinator-1", time.Minute, now)

	err := VerifyToken(secret, tok, now.Add(2*time.Hour))
	if err == nil {
		t.Fatal("expected expiry error")
	}
	if orbiterr.KindOf(err) != orbiterr.PolicyViolation {
		t.Fatalf("expected PolicyViolation, got %s", orbiterr.KindOf(err))
	}
}

func TestVerifyTokenRejectsAtExactExpiry(t *testing.T) {
	secret := []byte("grid-secret")
	now := time.Unix(1700000000, 0)
	tok, _ := IssueToken(secret, "/transfers/abc", "coordinator-1", time.Minute, now)

	err := VerifyToken(secret, tok, now.Add(time.Minute))
	if err == nil {
		t.Fatal("expected a token to be rejected the instant now equals exp")
	}
	if orbiterr.KindOf(err) != orbiterr.PolicyViolation {
		t.Fatalf("expected PolicyViolation, got %s", orbiterr.KindOf(err))
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tok, _ := IssueToken([]byte("secret-a"), "/transfers/abc", "coordinator-1", time.Hour, now)

	err := VerifyToken([]byte("secret-b"), tok, now)
	if err == nil {
		t.Fatal("expected signature mismatch error")
	}
}

func TestVerifyTokenRejectsTamperedPath(t *testing.T) {
	now := time.Unix(1700000000, 0)
	secret := []byte("grid-secret")
	tok, _ := IssueToken(secret, "/transfers/abc", "coordinator-1", time.Hour, now)

	tok.Claims.AllowPath = "/transfers/other"
	if err := VerifyToken(secret, tok, now); err == nil {
		t.Fatal("expected signature mismatch after tampering with a signed claim")
	}
}

func TestDefaultTokenTTLAppliesWhenZero(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tok, err := IssueToken([]byte("s"), "/p", "i", 0, now)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if tok.Claims.Exp-tok.Claims.Iat != int64(DefaultTokenTTL.Seconds()) {
		t.Fatalf("expected default ttl of %s, got %d seconds", DefaultTokenTTL, tok.Claims.Exp-tok.Claims.Iat)
	}
}
