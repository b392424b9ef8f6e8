package store

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func TestInspectToken(t *testing.T) {
	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "u42",
		"exp":    exp.Unix(),
		"iat":    exp.Add(-24 * time.Hour).Unix(),
	}).SignedString([]byte("not-the-server-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	info, err := InspectToken(signed)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.Subject != "u42" {
		t.Fatalf("subject = %q, want u42", info.Subject)
	}
	if !info.ExpiresAt.Equal(exp) {
		t.Fatalf("expiresAt = %v, want %v", info.ExpiresAt, exp)
	}
	if !info.Expired(time.Now()) {
		t.Fatal("expected token to be expired")
	}
}

func TestInspectTokenRejectsGarbage(t *testing.T) {
	if _, err := InspectToken("opaque-token"); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := InspectToken(""); err == nil {
		t.Fatal("expected error for empty token")
	}
}
