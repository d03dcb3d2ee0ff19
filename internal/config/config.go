package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or an env-file loaded before Load is called).
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	Log    LogConfig
	Store  StoreConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Twilio TwilioConfig
	Verify VerifyConfig
}

type AppConfig struct {
	Env  string
	Port int
}

// LogConfig tunes the process logger.
type LogConfig struct {
	// Level accepts: debug, info, warn, error. Empty picks by APP_ENV.
	Level string
	// RedactNumbers masks phone numbers in log lines. Defaults to on in production.
	RedactNumbers bool
}

// StoreConfig selects the phone check record backend.
// Accepts: memory, postgres, redis
type StoreConfig struct {
	Backend string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string

	// Pool sizes; zero keeps the utils defaults.
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

// AuthConfig configures operator tokens for the record read API.
// An empty JWTSecret disables those routes.
type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

// TwilioConfig holds provider credentials and endpoints.
// Credentials are optional at startup; requests fail with a server error until they are set.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string

	// FromNumber is the origin of verification calls (E.164).
	FromNumber string

	LookupBaseURL string
	APIBaseURL    string

	// WebhookBaseURL is the public base URL Twilio reaches this service at.
	// Optional; when empty the Twilio webhooks are not registered.
	WebhookBaseURL string

	HTTPTimeout time.Duration
}

// VerifyConfig tunes the verification call.
type VerifyConfig struct {
	// PollDelay is how long to wait after placing the call before reading its status once.
	PollDelay time.Duration
	// RingTimeout is passed to the provider as the maximum ring time.
	RingTimeout time.Duration
}

const (
	DefaultLookupBaseURL = "https://lookups.twilio.com/v2/PhoneNumbers"
	DefaultAPIBaseURL    = "https://api.twilio.com/2010-04-01"

	DefaultPollDelay   = 3 * time.Second
	DefaultRingTimeout = 10 * time.Second
	DefaultHTTPTimeout = 10 * time.Second

	DefaultAccessTokenTTL = 12 * time.Hour
)

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	{
		redact, err := optionalBool("LOG_REDACT_NUMBERS", c.IsProduction())
		c.Log.RedactNumbers, parseErrs = appendParseErr(parseErrs, redact, err)
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND")))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	{
		n, err := optionalInt("DB_MAX_OPEN_CONNS")
		c.DB.MaxOpenConns, parseErrs = appendParseErr(parseErrs, n, err)
	}
	{
		n, err := optionalInt("DB_MAX_IDLE_CONNS")
		c.DB.MaxIdleConns, parseErrs = appendParseErr(parseErrs, n, err)
	}
	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")

	// Ports are only required by the backend that uses them.
	switch c.Store.Backend {
	case "postgres":
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	case "redis":
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	auth, err := readAuth()
	if err != nil {
		parseErrs = append(parseErrs, err)
	}
	c.Auth = auth

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.FromNumber = strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER"))
	c.Twilio.LookupBaseURL = strings.TrimSpace(os.Getenv("TWILIO_LOOKUP_BASE_URL"))
	c.Twilio.APIBaseURL = strings.TrimSpace(os.Getenv("TWILIO_API_BASE_URL"))
	c.Twilio.WebhookBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("TWILIO_WEBHOOK_BASE_URL")), "/")
	{
		d, err := mustDuration("PROVIDER_HTTP_TIMEOUT")
		c.Twilio.HTTPTimeout, parseErrs = appendParseErr(parseErrs, d, err)
	}
	{
		d, err := mustDuration("VERIFY_POLL_DELAY")
		c.Verify.PollDelay, parseErrs = appendParseErr(parseErrs, d, err)
	}
	{
		d, err := mustDuration("VERIFY_RING_TIMEOUT")
		c.Verify.RingTimeout, parseErrs = appendParseErr(parseErrs, d, err)
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadAuth reads only the operator token settings, for tools that issue tokens.
func LoadAuth() (AuthConfig, error) {
	a, err := readAuth()
	if err != nil {
		return AuthConfig{}, err
	}
	if a.JWTSecret == "" {
		return AuthConfig{}, errors.New("JWT_SECRET is required")
	}
	if a.AccessTokenTTL <= 0 {
		a.AccessTokenTTL = DefaultAccessTokenTTL
	}
	return a, nil
}

func readAuth() (AuthConfig, error) {
	ttl, err := mustDuration("JWT_ACCESS_TTL")
	return AuthConfig{
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      strings.TrimSpace(os.Getenv("JWT_ISSUER")),
		JWTAudience:    strings.TrimSpace(os.Getenv("JWT_AUDIENCE")),
		AccessTokenTTL: ttl,
	}, err
}

// Validate checks the configuration and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.Log.Level))
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	switch c.Store.Backend {
	case "memory":
	case "postgres":
		errs = append(errs, c.validateDB()...)
	case "redis":
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required for the redis store"))
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be one of memory, postgres, redis, got %q", c.Store.Backend))
	}

	if c.Auth.JWTSecret != "" {
		if c.IsProduction() && c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.AccessTokenTTL <= 0 {
			c.Auth.AccessTokenTTL = DefaultAccessTokenTTL
		}
	}

	if c.Twilio.LookupBaseURL == "" {
		c.Twilio.LookupBaseURL = DefaultLookupBaseURL
	}
	if c.Twilio.APIBaseURL == "" {
		c.Twilio.APIBaseURL = DefaultAPIBaseURL
	}
	if c.Twilio.HTTPTimeout <= 0 {
		c.Twilio.HTTPTimeout = DefaultHTTPTimeout
	}

	if c.Verify.PollDelay <= 0 {
		c.Verify.PollDelay = DefaultPollDelay
	}
	if c.Verify.PollDelay < time.Second || c.Verify.PollDelay > 10*time.Second {
		errs = append(errs, fmt.Errorf("VERIFY_POLL_DELAY must be between 1s and 10s, got %s", c.Verify.PollDelay))
	}
	if c.Verify.RingTimeout <= 0 {
		c.Verify.RingTimeout = DefaultRingTimeout
	}
	if c.Verify.RingTimeout < 5*time.Second || c.Verify.RingTimeout > 60*time.Second {
		errs = append(errs, fmt.Errorf("VERIFY_RING_TIMEOUT must be between 5s and 60s, got %s", c.Verify.RingTimeout))
	}

	return joinErrors(errs)
}

func (c *Config) validateDB() []error {
	var errs []error
	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required for the postgres store"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required for the postgres store"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required for the postgres store"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// HasTwilioCredentials reports whether provider calls can be authenticated.
func (c Config) HasTwilioCredentials() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != ""
}

// Public webhook paths, relative to Twilio.WebhookBaseURL.
const (
	StatusCallbackPath = "/webhooks/twilio/call-status"
	InboundVoicePath   = "/webhooks/twilio/voice"
)

// StatusCallbackURL is empty when webhooks are disabled.
func (c Config) StatusCallbackURL() string {
	if c.Twilio.WebhookBaseURL == "" {
		return ""
	}
	return c.Twilio.WebhookBaseURL + StatusCallbackPath
}

func (c Config) InboundVoiceURL() string {
	if c.Twilio.WebhookBaseURL == "" {
		return ""
	}
	return c.Twilio.WebhookBaseURL + InboundVoicePath
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// optionalInt returns 0 for an unset value.
func optionalInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

func optionalBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s must be true or false, got %q", key, v)
	}
	return b, nil
}

// mustDuration returns 0 for an unset value; Validate applies defaults.
// Values need a unit ("3s", "500ms").
func mustDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration with a unit such as 3s, got %q", key, v)
	}
	return d, nil
}

func appendParseErr[T any](errs []error, v T, err error) (T, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return v, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
