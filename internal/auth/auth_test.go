package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateToken(t *testing.T) {
	iss, err := NewIssuer("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	token, err := iss.GenerateToken("alice", []string{"Writer", "writer", " "}, time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	claims, err := iss.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != RoleWriter {
		t.Fatalf("roles not normalized: %v", claims.Roles)
	}
	if !claims.CanWrite() || !claims.CanRead() {
		t.Fatalf("writer should read and write")
	}
}

func TestRolePermissions(t *testing.T) {
	reader := &Claims{Roles: []string{RoleReader}}
	if !reader.CanRead() || reader.CanWrite() {
		t.Fatalf("reader permissions wrong")
	}
	admin := &Claims{Roles: []string{RoleAdmin}}
	if !admin.CanRead() || !admin.CanWrite() || !admin.IsAdmin() {
		t.Fatalf("admin permissions wrong")
	}
	writer := &Claims{Roles: []string{RoleWriter}}
	if writer.IsAdmin() {
		t.Fatalf("writer must not be admin")
	}
	if (&Claims{}).CanRead() {
		t.Fatalf("no roles must not read")
	}
}

func TestRejectsForeignOrExpiredTokens(t *testing.T) {
	iss, _ := NewIssuer("test-secret")
	other, _ := NewIssuer("other-secret")

	token, _ := other.GenerateToken("bob", []string{RoleReader}, time.Minute)
	if _, err := iss.ParseAndValidate(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}

	past := time.Now().Add(-time.Hour)
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "bob",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.ParseAndValidate(signed); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
	if _, err := iss.ParseAndValidate(""); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer("  "); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func TestClaimsContext(t *testing.T) {
	ctx := ContextWithClaims(context.Background(), &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "carol"}})
	if id, ok := UserIDFromContext(ctx); !ok || id != "carol" {
		t.Fatalf("unexpected user %q %v", id, ok)
	}
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Fatal("empty context must not carry a user")
	}
}
