package util

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("user-1", "admin", "secret", time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	claims, err := ValidateToken(token, "secret")
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", claims.Subject)
	}
	if claims.Role != "admin" {
		t.Fatalf("expected role admin, got %q", claims.Role)
	}
}

func TestGenerateTokenRejectsBadInput(t *testing.T) {
	if _, err := GenerateToken("", "user", "secret", time.Minute); err == nil {
		t.Fatal("expected error for empty userID")
	}
	if _, err := GenerateToken("user-1", "user", "secret", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", "user", "secret", time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Fatal("expected validation to fail under the wrong secret")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	now := time.Now().UTC().Add(-2 * time.Hour)
	claims := Claims{
		Role: "user",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	if _, err := ValidateToken(signed, "secret"); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestValidateTokenRejectsNonHMAC(t *testing.T) {
	// alg=none style tokens must never validate.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	if _, err := ValidateToken(signed, "secret"); err == nil {
		t.Fatal("expected non-HMAC token to be rejected")
	}
}

func TestTokensAreUnique(t *testing.T) {
	a, err := GenerateToken("user-1", "user", "secret", time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	b, err := GenerateToken("user-1", "user", "secret", time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct tokens for back-to-back mints")
	}
	if !strings.Contains(a, ".") {
		t.Fatalf("token does not look like a JWT: %q", a)
	}
}
