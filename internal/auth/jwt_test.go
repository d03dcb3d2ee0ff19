package auth

import (
	"testing"
	"time"

	"phone-availability/internal/config"
)

func testManager(t *testing.T, cfg config.AuthConfig) *Manager {
	t.Helper()
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m := testManager(t, config.AuthConfig{
		JWTSecret:      "secret",
		JWTIssuer:      "issuer",
		JWTAudience:    "aud",
		AccessTokenTTL: 15 * time.Minute,
	})

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.IssueAccessToken(now, "ops-1", "viewer")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "ops-1" || claims.Role != "viewer" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := testManager(t, config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute})

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.IssueAccessToken(now, "ops-1", "viewer")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(10*time.Minute)); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerifyRejectsOtherSecretAndIssuer(t *testing.T) {
	now := time.Now()
	a := testManager(t, config.AuthConfig{JWTSecret: "a", JWTIssuer: "one", AccessTokenTTL: time.Minute})
	tok, err := a.IssueAccessToken(now, "ops-1", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	b := testManager(t, config.AuthConfig{JWTSecret: "b", JWTIssuer: "one", AccessTokenTTL: time.Minute})
	if _, err := b.Verify(tok, now); err == nil {
		t.Fatalf("expected signature failure")
	}
	c := testManager(t, config.AuthConfig{JWTSecret: "a", JWTIssuer: "two", AccessTokenTTL: time.Minute})
	if _, err := c.Verify(tok, now); err == nil {
		t.Fatalf("expected issuer mismatch")
	}
}

func TestIssueRequiresOperatorAndRole(t *testing.T) {
	m := testManager(t, config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute})
	if _, err := m.IssueAccessToken(time.Now(), "", "viewer"); err == nil {
		t.Fatalf("expected operator required")
	}
	if _, err := m.IssueAccessToken(time.Now(), "ops-1", ""); err == nil {
		t.Fatalf("expected role required")
	}
}
