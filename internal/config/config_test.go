package config

import (
	"testing"
	"time"

	"github.com/rxtech-lab/actionkeeper/internal/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"APP_ENV", "PORT", "POSTGRES_URL", "DB_PATH", "API_TOKEN", "JWT_SECRET", "RATE_LIMIT_PER_MINUTE",
	"VERIFY_BASE_URL", "ARTIFACT_STORAGE_TYPE", "ARTIFACTS_DIR", "ARTIFACT_S3_BUCKET", "ARTIFACT_S3_REGION",
	"AWS_REGION", "ARTIFACT_S3_ENDPOINT", "ARTIFACT_S3_PREFIX", "ARTIFACT_GCS_BUCKET", "ARTIFACT_GCS_PREFIX",
	"STRIPE_WEBHOOK_SECRET", "STRIPE_TOLERANCE_SECONDS", "PAYMENT_BYPASS_TOKEN",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
}

func clearEnv(t *testing.T) {
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", "/tmp/ak.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.AppEnv)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, "test-secret", cfg.WebhookSecret)
	assert.Equal(t, 300*time.Second, cfg.WebhookTolerance)
	assert.Equal(t, blobstore.StoreTypeFS, cfg.Artifacts.Type)
	assert.Equal(t, "artifacts", cfg.Artifacts.Dir)
	assert.Equal(t, "/tmp/ak.db", cfg.DBPath)
	assert.Empty(t, cfg.PaymentBypassToken)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	t.Setenv("VERIFY_BASE_URL", "https://keeper.example.com/api/v1/")
	t.Setenv("ARTIFACT_STORAGE_TYPE", "s3")
	t.Setenv("ARTIFACT_S3_BUCKET", "receipts")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("PAYMENT_BYPASS_TOKEN", "dev-bypass")
	t.Setenv("STRIPE_TOLERANCE_SECONDS", "60")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 0, cfg.RateLimitPerMinute)
	assert.Equal(t, "https://keeper.example.com/api/v1", cfg.VerifyBaseURL)
	assert.Equal(t, blobstore.StoreTypeS3, cfg.Artifacts.Type)
	assert.Equal(t, "receipts", cfg.Artifacts.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Artifacts.S3.Region)
	assert.Equal(t, "dev-bypass", cfg.PaymentBypassToken)
	assert.Equal(t, time.Minute, cfg.WebhookTolerance)
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.True(t, cfg.OTLPInsecure)
}

func TestLoadProductionDisablesBypass(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "Production")
	t.Setenv("PAYMENT_BYPASS_TOKEN", "dev-bypass")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Empty(t, cfg.PaymentBypassToken)
}

func TestLoadInvalidNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	_, err := Load()
	assert.ErrorContains(t, err, "invalid PORT")

	clearEnv(t)
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-1")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadInvalidOTLPInsecure(t *testing.T) {
	clearEnv(t)
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "sometimes")
	_, err := Load()
	assert.ErrorContains(t, err, "invalid OTEL_EXPORTER_OTLP_INSECURE")
}
