// Command issue-token prints an operator bearer token for the record read API.
//
//	JWT_SECRET=... issue-token -operator alice -role viewer
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"phone-availability/internal/auth"
	"phone-availability/internal/config"
	"phone-availability/internal/rbac"

	"github.com/joho/godotenv"
)

func main() {
	operator := flag.String("operator", "", "operator id placed in the token subject")
	role := flag.String("role", rbac.RoleViewer, "operator role: viewer or admin")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to JWT_ACCESS_TTL")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("env file not loaded", "err", err)
	}

	if err := run(os.Stdout, time.Now(), *operator, *role, *ttl); err != nil {
		slog.Error("issue token failed", "err", err)
		os.Exit(1)
	}
}

func run(out io.Writer, now time.Time, operator, role string, ttl time.Duration) error {
	if operator == "" {
		return errors.New("-operator is required")
	}
	if !rbac.IsKnownRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}

	cfg, err := config.LoadAuth()
	if err != nil {
		return err
	}
	if ttl > 0 {
		cfg.AccessTokenTTL = ttl
	}

	m, err := auth.NewManager(cfg)
	if err != nil {
		return err
	}
	tok, err := m.IssueAccessToken(now, operator, role)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, tok)
	return err
}
