package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Production origins that may call the API from a browser.
var defaultOrigins = []string{
	"https://gever-intake.netlify.app",
	"https://intake.geverhealth.com",
}

var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3077",
	"http://127.0.0.1:3000",
}

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	BlobBackend string `mapstructure:"BLOB_BACKEND"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	S3Bucket       string `mapstructure:"S3_BUCKET"`
	S3Prefix       string `mapstructure:"S3_PREFIX"`
	AWSRegion      string `mapstructure:"AWS_REGION"`
	AWSEndpointURL string `mapstructure:"AWS_ENDPOINT_URL"`

	AllowedOrigins []string      `mapstructure:"ALLOWED_ORIGINS"`
	MaxBodySize    string        `mapstructure:"MAX_BODY_SIZE"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	BelugaAPIURL     string `mapstructure:"BELUGA_API_URL"`
	BelugaAPIKey     string `mapstructure:"BELUGA_API_KEY"`
	BelugaPharmacyID string `mapstructure:"BELUGA_PHARMACY_ID"`

	StripeSecretKey string `mapstructure:"STRIPE_SECRET_KEY"`

	TwilioAccountSID       string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken        string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioVerifyServiceSID string `mapstructure:"TWILIO_VERIFY_SERVICE_SID"`

	TurnstileSecretKey string `mapstructure:"TURNSTILE_SECRET_KEY"`
	AdminLogToken      string `mapstructure:"ADMIN_LOG_TOKEN"`
	FormSessionKey     string `mapstructure:"FORM_SESSION_KEY"`

	// ExpiryTimezone is the IANA zone for affiliate expiry times written
	// without an offset.
	ExpiryTimezone string `mapstructure:"EXPIRY_TIMEZONE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("BLOB_BACKEND", "memory")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("S3_PREFIX", "intake")
	v.SetDefault("ALLOWED_ORIGINS", strings.Join(defaultOrigins, ","))
	v.SetDefault("MAX_BODY_SIZE", "100K")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BELUGA_API_URL", "https://api-staging.belugahealth.com")
	v.SetDefault("EXPIRY_TIMEZONE", "UTC")

	for _, key := range []string{
		"PORT", "ENV", "BLOB_BACKEND", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"S3_BUCKET", "S3_PREFIX", "AWS_REGION", "AWS_ENDPOINT_URL",
		"ALLOWED_ORIGINS", "MAX_BODY_SIZE", "REQUEST_TIMEOUT",
		"BELUGA_API_URL", "BELUGA_API_KEY", "BELUGA_PHARMACY_ID",
		"STRIPE_SECRET_KEY",
		"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_VERIFY_SERVICE_SID",
		"TURNSTILE_SECRET_KEY", "ADMIN_LOG_TOKEN", "FORM_SESSION_KEY",
		"EXPIRY_TIMEZONE",
	} {
		_ = v.BindEnv(key)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// comma-separated in the environment; trim what the decode hook leaves
	if raw := v.GetString("ALLOWED_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	if cfg.IsDev() {
		log.Println("WARNING: running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: localhost origins are allowed and forwarded client IP headers are trusted.")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Origins returns the browser origins allowed to call the API. Localhost
// origins are appended in development.
func (c *Config) Origins() []string {
	origins := append([]string(nil), c.AllowedOrigins...)
	if c.IsDev() {
		origins = append(origins, devOrigins...)
	}
	return origins
}

// BelugaConfigured reports whether the clinical intake API credentials are set.
func (c *Config) BelugaConfigured() bool {
	return c.BelugaAPIKey != "" && c.BelugaPharmacyID != ""
}

// TwilioConfigured reports whether all three Twilio Verify settings are set.
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioVerifyServiceSID != ""
}

// Validate checks that the configuration is usable. Outbound service
// credentials (Beluga, Twilio, Turnstile) are not checked here: the
// handlers report their absence per request.
func (c *Config) Validate() error {
	switch c.BlobBackend {
	case "memory":
		if c.IsProduction() {
			return fmt.Errorf("BLOB_BACKEND=memory is not allowed in production")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when BLOB_BACKEND is \"postgres\"")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when BLOB_BACKEND is \"s3\"")
		}
	default:
		return fmt.Errorf("BLOB_BACKEND must be \"memory\", \"postgres\", or \"s3\", got %q", c.BlobBackend)
	}

	if c.IsProduction() {
		if c.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required in production")
		}
		if c.AdminLogToken == "" {
			return fmt.Errorf("ADMIN_LOG_TOKEN is required in production")
		}
	}

	if _, err := c.ExpiryLocation(); err != nil {
		return err
	}

	if c.FormSessionKey != "" {
		key, err := hex.DecodeString(c.FormSessionKey)
		if err != nil {
			return fmt.Errorf("FORM_SESSION_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("FORM_SESSION_KEY must be 32 bytes (64 hex chars), got %d bytes", len(key))
		}
	}

	return nil
}

// ExpiryLocation resolves EXPIRY_TIMEZONE. Empty means UTC.
func (c *Config) ExpiryLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ExpiryTimezone)
	if err != nil {
		return nil, fmt.Errorf("EXPIRY_TIMEZONE %q: %w", c.ExpiryTimezone, err)
	}
	return loc, nil
}

// FormSessionKeyBytes returns the decoded form-session sealing key, or nil
// when none is configured. Validate must have accepted the config.
func (c *Config) FormSessionKeyBytes() []byte {
	if c.FormSessionKey == "" {
		return nil
	}
	key, err := hex.DecodeString(c.FormSessionKey)
	if err != nil {
		return nil
	}
	return key
}
