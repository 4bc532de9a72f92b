package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/actionkeeper/internal/blobstore"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DefaultPort               = 8080
	DefaultRateLimitPerMinute = 120
	DefaultWebhookSecret      = "test-secret"
	DefaultWebhookTolerance   = 300 * time.Second
)

// Config is the process configuration read from the environment.
type Config struct {
	AppEnv             string
	Port               int
	PostgresURL        string
	DBPath             string
	APIToken           string
	JWTSecret          string
	RateLimitPerMinute int
	VerifyBaseURL      string
	Artifacts          blobstore.Config
	WebhookSecret      string
	WebhookTolerance   time.Duration
	// PaymentBypassToken is always empty in production.
	PaymentBypassToken string
	// OTLPEndpoint, when set, receives the agreement metrics over gRPC.
	OTLPEndpoint string
	OTLPInsecure bool
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// Load reads the configuration from the environment and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:        strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		APIToken:      os.Getenv("API_TOKEN"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		VerifyBaseURL: strings.TrimSuffix(os.Getenv("VERIFY_BASE_URL"), "/"),
		WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", DefaultWebhookSecret),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Artifacts: blobstore.Config{
			Type: blobstore.StoreType(getEnv("ARTIFACT_STORAGE_TYPE", string(blobstore.StoreTypeFS))),
			Dir:  getEnv("ARTIFACTS_DIR", "artifacts"),
			S3: blobstore.S3StoreConfig{
				Bucket:   os.Getenv("ARTIFACT_S3_BUCKET"),
				Region:   firstNonEmpty(os.Getenv("ARTIFACT_S3_REGION"), os.Getenv("AWS_REGION")),
				Endpoint: os.Getenv("ARTIFACT_S3_ENDPOINT"),
				Prefix:   os.Getenv("ARTIFACT_S3_PREFIX"),
			},
			GCS: blobstore.GCSStoreConfig{
				Bucket: os.Getenv("ARTIFACT_GCS_BUCKET"),
				Prefix: os.Getenv("ARTIFACT_GCS_PREFIX"),
			},
		},
	}

	var err error
	if cfg.Port, err = getInt("PORT", DefaultPort); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", DefaultRateLimitPerMinute); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}

	toleranceSeconds, err := getInt("STRIPE_TOLERANCE_SECONDS", int(DefaultWebhookTolerance/time.Second))
	if err != nil {
		return nil, err
	}
	cfg.WebhookTolerance = time.Duration(toleranceSeconds) * time.Second

	if raw := os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"); raw != "" {
		if cfg.OTLPInsecure, err = strconv.ParseBool(strings.TrimSpace(raw)); err != nil {
			return nil, fmt.Errorf("invalid OTEL_EXPORTER_OTLP_INSECURE %q: %w", raw, err)
		}
	}

	cfg.DBPath = os.Getenv("DB_PATH")
	if cfg.DBPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(homeDir, "actionkeeper.db")
	}

	if !cfg.IsProduction() {
		cfg.PaymentBypassToken = os.Getenv("PAYMENT_BYPASS_TOKEN")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
