package security

import (
	"testing"
	"time"
)

func TestJWTSignAndParseRoundTrip(t *testing.T) {
	m := NewJWTManager("propfolio", "propfolio-api", "test-secret")

	raw, err := m.SignAccessToken(42, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := m.ParseAccessToken(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected user 42, got %d", id)
	}
}

func TestJWTRejectsExpired(t *testing.T) {
	m := NewJWTManager("propfolio", "propfolio-api", "test-secret")
	raw, err := m.SignAccessToken(1, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.ParseAccessToken(raw); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	m := NewJWTManager("propfolio", "propfolio-api", "secret-a")
	other := NewJWTManager("propfolio", "propfolio-api", "secret-b")
	raw, err := m.SignAccessToken(1, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := other.ParseAccessToken(raw); err == nil {
		t.Fatal("expected token signed with different secret to be rejected")
	}
}

func TestSessionTokenHashing(t *testing.T) {
	tok, err := NewSessionToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if len(tok) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(tok))
	}
	h1 := HashSessionToken(tok, "pepper")
	h2 := HashSessionToken(tok, "pepper")
	if h1 != h2 {
		t.Fatal("hash must be deterministic")
	}
	if h1 == HashSessionToken(tok, "other-pepper") {
		t.Fatal("pepper must change the hash")
	}
	if h1 == tok {
		t.Fatal("hash must not equal the raw token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Valid#Pass1234")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "Valid#Pass1234") {
		t.Fatal("expected password to verify")
	}
	if VerifyPassword(hash, "wrong") {
		t.Fatal("expected wrong password to fail")
	}
}
