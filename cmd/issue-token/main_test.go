package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"phone-availability/internal/auth"
	"phone-availability/internal/config"
	"phone-availability/internal/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	cases := []struct {
		name     string
		operator string
		role     string
		ttl      time.Duration
		wantErr  string
		wantTTL  time.Duration
	}{
		{name: "missing operator", role: rbac.RoleViewer, wantErr: "-operator is required"},
		{name: "unknown role", operator: "alice", role: "owner", wantErr: `unknown role "owner"`},
		{name: "default ttl", operator: "alice", role: rbac.RoleViewer, wantTTL: time.Hour},
		{name: "ttl override", operator: "bob", role: rbac.RoleAdmin, ttl: 15 * time.Minute, wantTTL: 15 * time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "secret")
			t.Setenv("JWT_ISSUER", "")
			t.Setenv("JWT_AUDIENCE", "")
			t.Setenv("JWT_ACCESS_TTL", "1h")

			var out bytes.Buffer
			err := run(&out, now, tc.operator, tc.role, tc.ttl)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				assert.Empty(t, out.String())
				return
			}
			require.NoError(t, err)

			m, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Hour})
			require.NoError(t, err)
			claims, err := m.Verify(strings.TrimSpace(out.String()), now)
			require.NoError(t, err)

			assert.Equal(t, tc.operator, claims.Subject)
			assert.Equal(t, tc.role, claims.Role)
			assert.True(t, now.Add(tc.wantTTL).Equal(claims.ExpiresAt.Time), "expires at %s", claims.ExpiresAt.Time)
		})
	}
}

func TestRun_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	var out bytes.Buffer
	err := run(&out, time.Now(), "alice", rbac.RoleViewer, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
