package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("u1", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	ident, err := ParseAccessToken(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ident.UserID != "u1" || ident.Email != "alice@example.com" {
		t.Errorf("unexpected identity %+v", ident)
	}
	if ident.ExpiresAt.Before(time.Now()) {
		t.Error("freshly issued token should not be expired")
	}
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("u1", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseAccessToken(token, "other"); err == nil {
		t.Error("wrong secret must fail verification")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	now := time.Now().Add(-time.Hour)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		Email: "alice@example.com",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(signed, "secret"); err == nil {
		t.Error("expired token must fail verification")
	}
}

func TestParseAccessTokenRejectsUnsignedAlg(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(signed, "secret"); err == nil {
		t.Error("alg=none must be rejected")
	}
}

func TestParseAccessTokenGarbage(t *testing.T) {
	if _, err := ParseAccessToken("not.a.token", "secret"); err == nil {
		t.Error("garbage must fail")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2" {
		t.Error("hash must not be the plaintext")
	}
	if !CheckPassword("hunter2", hash) {
		t.Error("correct password should verify")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password must not verify")
	}
}

func TestGenerateRefreshTokenUnique(t *testing.T) {
	if GenerateRefreshToken() == GenerateRefreshToken() {
		t.Error("refresh tokens must be unique")
	}
}
