package security

import (
	"errors"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if errCheck := CheckPassword(hash, "s3cret"); errCheck != nil {
		t.Fatalf("expected match, got %v", errCheck)
	}
	if errCheck := CheckPassword(hash, "wrong"); errCheck == nil {
		t.Fatalf("expected mismatch")
	}
	if _, err = HashPassword("  "); err == nil {
		t.Fatalf("expected error for blank password")
	}
}

func TestImportedUserCannotLogin(t *testing.T) {
	if err := CheckPassword("imported_user", "imported_user"); !errors.Is(err, ErrNoLocalCredential) {
		t.Fatalf("expected ErrNoLocalCredential, got %v", err)
	}
}

func TestIssueAndParseUserToken(t *testing.T) {
	now := time.Now()
	token, expiresAt, err := IssueUserToken("secret", "user-1", "a@example.com", time.Hour, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.After(now) {
		t.Fatalf("expiry must be in the future")
	}
	claims, err := ParseUserToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err = ParseUserToken("other-secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	expired, _, err := IssueUserToken("secret", "user-1", "", time.Minute, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	if _, err = ParseUserToken("secret", expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
