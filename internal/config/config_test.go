package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_AppliesDefaults(t *testing.T) {
	c := Config{App: AppConfig{Env: "local", Port: 8080}}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Store.Backend != "memory" {
		t.Fatalf("expected memory store default, got %q", c.Store.Backend)
	}
	if c.Verify.PollDelay != DefaultPollDelay {
		t.Fatalf("expected default poll delay, got %s", c.Verify.PollDelay)
	}
	if c.Verify.RingTimeout != DefaultRingTimeout {
		t.Fatalf("expected default ring timeout, got %s", c.Verify.RingTimeout)
	}
	if c.Twilio.LookupBaseURL != DefaultLookupBaseURL || c.Twilio.APIBaseURL != DefaultAPIBaseURL {
		t.Fatalf("expected default twilio urls, got %q %q", c.Twilio.LookupBaseURL, c.Twilio.APIBaseURL)
	}
	if c.HasTwilioCredentials() {
		t.Fatalf("expected no credentials")
	}
}

func TestValidate_PollDelayBounds(t *testing.T) {
	for _, d := range []time.Duration{500 * time.Millisecond, 11 * time.Second} {
		c := Config{App: AppConfig{Env: "local", Port: 8080}, Verify: VerifyConfig{PollDelay: d}}
		if err := c.Validate(); err == nil {
			t.Fatalf("expected error for poll delay %s", d)
		}
	}
}

func TestValidate_ProductionPostgresRequiresSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "production", Port: 8080},
		Store: StoreConfig{Backend: "postgres"},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "checks"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalPostgresDefaultsSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 8080},
		Store: StoreConfig{Backend: "postgres"},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "checks"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_RejectsUnknownStore(t *testing.T) {
	c := Config{App: AppConfig{Env: "local", Port: 8080}, Store: StoreConfig{Backend: "mongo"}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "token")
	t.Setenv("VERIFY_POLL_DELAY", "2s")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.HTTPAddr() != ":9090" {
		t.Fatalf("unexpected addr %q", c.HTTPAddr())
	}
	if c.RedisAddr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr())
	}
	if !c.HasTwilioCredentials() {
		t.Fatalf("expected credentials")
	}
	if c.Verify.PollDelay != 2*time.Second {
		t.Fatalf("expected 2s poll delay, got %s", c.Verify.PollDelay)
	}
}

func TestLoadAuth(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadAuth(); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_ISSUER", "checker")
	a, err := LoadAuth()
	if err != nil {
		t.Fatalf("load auth: %v", err)
	}
	if a.JWTIssuer != "checker" || a.AccessTokenTTL != DefaultAccessTokenTTL {
		t.Fatalf("unexpected auth config %+v", a)
	}
}

func TestWebhookURLs(t *testing.T) {
	c := Config{}
	if c.StatusCallbackURL() != "" || c.InboundVoiceURL() != "" {
		t.Fatalf("expected webhooks disabled without base url")
	}
	c.Twilio.WebhookBaseURL = "https://checker.example.test"
	if got := c.StatusCallbackURL(); got != "https://checker.example.test/webhooks/twilio/call-status" {
		t.Fatalf("unexpected status callback url %q", got)
	}
}

func TestLoad_RejectsDurationWithoutUnit(t *testing.T) {
	for _, key := range []string{"VERIFY_POLL_DELAY", "VERIFY_RING_TIMEOUT", "PROVIDER_HTTP_TIMEOUT"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv("APP_ENV", "dev")
			t.Setenv("APP_PORT", "9090")
			t.Setenv("STORE_BACKEND", "memory")
			t.Setenv(key, "8")

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=8", key)
			}
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected error to name %s, got %v", key, err)
			}
		})
	}
}

func TestLoadAuth_RejectsMalformedTTL(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_ACCESS_TTL", "12")
	if _, err := LoadAuth(); err == nil {
		t.Fatalf("expected error for JWT_ACCESS_TTL without unit")
	}
}

func TestLoad_LogAndPoolSettings(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "checker")
	t.Setenv("DB_NAME", "checks")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("JWT_SECRET", "")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Log.Level != "warn" || !c.Log.RedactNumbers {
		t.Fatalf("unexpected log config %+v", c.Log)
	}
	if c.DB.MaxOpenConns != 4 || c.DB.MaxIdleConns != 0 {
		t.Fatalf("unexpected pool config %+v", c.DB)
	}

	t.Setenv("LOG_REDACT_NUMBERS", "false")
	t.Setenv("DB_MAX_IDLE_CONNS", "-1")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "DB_MAX_IDLE_CONNS") {
		t.Fatalf("expected DB_MAX_IDLE_CONNS error, got %v", err)
	}

	t.Setenv("DB_MAX_IDLE_CONNS", "")
	t.Setenv("LOG_LEVEL", "verbose")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Fatalf("expected LOG_LEVEL error, got %v", err)
	}
}
