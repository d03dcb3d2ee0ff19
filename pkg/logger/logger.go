package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures New.
type Options struct {
	// Env is APP_ENV; local and dev log at debug level unless Level is set.
	Env string
	// Level accepts debug, info, warn, error.
	Level string
	// RedactNumbers masks phone number attributes down to their last four digits.
	RedactNumbers bool

	// Output defaults to os.Stdout.
	Output io.Writer
}

// New returns a JSON structured logger.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	ho := &slog.HandlerOptions{Level: level(opts)}
	if opts.RedactNumbers {
		ho.ReplaceAttr = redactNumbers
	}
	return slog.New(slog.NewJSONHandler(out, ho))
}

func level(opts Options) slog.Level {
	switch opts.Level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if opts.Env == "local" || opts.Env == "dev" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// numberKeys are the attribute keys that carry subscriber numbers.
var numberKeys = map[string]bool{
	"number":      true,
	"to":          true,
	"from":        true,
	"full_number": true,
}

func redactNumbers(_ []string, a slog.Attr) slog.Attr {
	if numberKeys[a.Key] && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, MaskNumber(a.Value.String()))
	}
	return a
}

// MaskNumber replaces every digit but the last four with '*'.
// Non-digit characters are kept so the shape stays readable.
func MaskNumber(s string) string {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits <= 4 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	seen := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			seen++
			if seen <= digits-4 {
				b.WriteByte('*')
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
