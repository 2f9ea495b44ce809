package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultTopic is the FCM topic production alerts are published to.
const DefaultTopic = "production_alerts"

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8080.
	Port int `envconfig:"PORT" default:"8080"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogFile switches logging from stdout to a size-rotated file when set.
	LogFile string `envconfig:"LOG_FILE"`

	// CredentialsFile points at a Google service-account JSON key. When empty the
	// GOOGLE_APPLICATION_CREDENTIALS variable is consulted, and after that the
	// FIREBASE_* variables below.
	CredentialsFile           string `envconfig:"CREDENTIALS_FILE"`
	ApplicationCredentialsEnv string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`

	ProjectID    string `envconfig:"FIREBASE_PROJECT_ID"`
	ClientEmail  string `envconfig:"FIREBASE_CLIENT_EMAIL"`
	PrivateKey   string `envconfig:"FIREBASE_PRIVATE_KEY"`
	PrivateKeyID string `envconfig:"FIREBASE_PRIVATE_KEY_ID"`

	// Topic is the single FCM topic every notification goes to.
	Topic string `envconfig:"FCM_TOPIC" default:"production_alerts"`

	// TokenURL overrides the OAuth2 token endpoint. Empty means the credential's
	// token_uri, falling back to Google's default endpoint.
	TokenURL string `envconfig:"TOKEN_URL"`

	// FCMEndpoint is the base URL of the FCM v1 API.
	FCMEndpoint string `envconfig:"FCM_ENDPOINT" default:"https://fcm.googleapis.com/"`

	// TokenCache enables reuse of access tokens across requests until they are
	// within TokenRenewBefore of expiring. Off by default: every request
	// performs a fresh token exchange.
	TokenCache       bool          `envconfig:"TOKEN_CACHE" default:"false"`
	TokenRenewBefore time.Duration `envconfig:"TOKEN_RENEW_BEFORE" default:"2m"`

	// HTTPTimeout bounds each outbound call (token exchange, FCM send).
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	// WebhookSecret, when set, must be presented by callers as a bearer token.
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`

	// MaxBodyBytes caps the inbound webhook body.
	MaxBodyBytes int64 `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	// OTLPEndpoint enables trace export over OTLP/gRPC when set.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads AppConfig from environment variables using envconfig.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if strings.TrimSpace(c.Topic) == "" {
		c.Topic = DefaultTopic
	}
	if c.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("loading config: HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("loading config: MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CredentialsPath returns the service-account file to load, or "" when the
// credential should be read from the FIREBASE_* variables.
func (c *AppConfig) CredentialsPath() string {
	if c.CredentialsFile != "" {
		return c.CredentialsFile
	}
	return c.ApplicationCredentialsEnv
}
