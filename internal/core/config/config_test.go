package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requiredEnv = map[string]string{
	"DB_DSN":            "host=localhost user=zap dbname=zapshift sslmode=disable",
	"STRIPE_SECRET_KEY": "sk_test_123",
	"SITE_DOMAIN":       "http://localhost:5173",
	"AUTH_JWT_SECRET":   "secret",
}

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range requiredEnv {
		t.Setenv(k, v)
	}
}

func unsetAll(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	unsetAll(t, "APP_ENV", "LOG_LEVEL", "SERVER_PORT", "TRACKING_CACHE_TTL", "KAFKA_BROKERS", "KAFKA_TOPIC")
	setRequired(t)

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5000, cfg.ServerPort)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TrackingTTL)
	assert.Equal(t, "https://api.stripe.com", cfg.Stripe.APIURL)
	assert.Equal(t, "usd", cfg.Stripe.Currency)
	assert.Equal(t, "parcel.lifecycle", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TRACKING_CACHE_TTL", "30s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.Redis.TrackingTTL)
	assert.Equal(t, "sk_test_123", cfg.Stripe.SecretKey)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	unsetAll(t, "APP_ENV", "LOG_LEVEL", "SERVER_PORT", "DB_DSN", "STRIPE_SECRET_KEY", "SITE_DOMAIN", "AUTH_JWT_SECRET")

	content := []byte(`
APP_ENV=staging
LOG_LEVEL=warn
SERVER_PORT=7070
DB_DSN=postgres://zap:zap@db:5432/zapshift
STRIPE_SECRET_KEY=sk_staging
SITE_DOMAIN=https://staging.zapshift.test
AUTH_PUBLIC_KEY_URL=https://sso.zapshift.test/public-key
`)
	err := os.WriteFile(".env", content, 0644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "https://sso.zapshift.test/public-key", cfg.Auth.PublicKeyURL)
}

// TestLoad_ValidationFailure verifies that missing required fields return an error.
func TestLoad_ValidationFailure(t *testing.T) {
	setRequired(t)
	unsetAll(t, "STRIPE_SECRET_KEY")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "missing required configuration")
}

// TestLoad_MissingAuth verifies that one verification method must be configured.
func TestLoad_MissingAuth(t *testing.T) {
	setRequired(t)
	unsetAll(t, "AUTH_JWT_SECRET", "AUTH_PUBLIC_KEY_URL")

	cfg, err := Load(".")
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrMissingAuth)
}
