package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("pw123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "pw123" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("unexpected hash %q", hash)
	}
	if err := CheckPassword(hash, "pw123"); err != nil {
		t.Fatalf("CheckPassword(correct): %v", err)
	}
	if err := CheckPassword(hash, "nope"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestHashPassword_BadCostFallsBack(t *testing.T) {
	hash, err := HashPassword("x", 99)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, %v; want %d", cost, err, bcrypt.DefaultCost)
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	err := CheckPassword("not-a-hash", "pw")
	if err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected a non-mismatch error, got %v", err)
	}
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("secret", "linkboard", time.Hour)
	tok, exp, err := iss.Issue("u1", "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %v", exp)
	}
	claims, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "alice" || claims.UserID != "u1" || claims.Issuer != "linkboard" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestIssuer_Rejects(t *testing.T) {
	iss := NewIssuer("secret", "linkboard", time.Minute)
	good, _, err := iss.Issue("u1", "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	expired := NewIssuer("secret", "linkboard", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, _ := expired.Issue("u1", "alice")

	otherIssuer, _, _ := NewIssuer("secret", "someone-else", time.Minute).Issue("u1", "alice")
	otherSecret, _, _ := NewIssuer("different", "linkboard", time.Minute).Issue("u1", "alice")

	cases := []struct {
		name string
		tok  string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"expired", old},
		{"wrong issuer", otherIssuer},
		{"wrong secret", otherSecret},
		{"tampered", good + "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := iss.Parse(tc.tok); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewIssuer_DefaultTTL(t *testing.T) {
	iss := NewIssuer("s", "", 0)
	if iss.ttl != 30*time.Minute {
		t.Fatalf("ttl = %v; want 30m", iss.ttl)
	}
}
