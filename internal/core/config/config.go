package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"5000"`
	// CORSOrigins is the comma separated list of allowed browser origins.
	CORSOrigins string `mapstructure:"CORS_ORIGINS" default:"*"`

	// Database holds the persistent store configuration.
	Database DatabaseConfig `mapstructure:",squash"`

	// Redis holds the cache configuration.
	Redis RedisConfig `mapstructure:",squash"`

	// Stripe holds the payment provider configuration.
	Stripe StripeConfig `mapstructure:",squash"`

	// Auth holds the identity verification configuration.
	Auth AuthConfig `mapstructure:",squash"`

	// Kafka holds the lifecycle event publisher configuration.
	Kafka KafkaConfig `mapstructure:",squash"`
}

// DatabaseConfig holds database connection details.
type DatabaseConfig struct {
	// DSN is the PostgreSQL connection string.
	DSN string `mapstructure:"DB_DSN" required:"true"`
	// MaxOpenConns caps the connection pool size.
	MaxOpenConns int `mapstructure:"DB_MAX_OPEN_CONNS" default:"20"`
}

// RedisConfig holds the Redis connection details.
type RedisConfig struct {
	// URL in the format redis://[:password@]host[:port][/database].
	URL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379/0"`
	// TrackingTTL is how long a tracking timeline stays cached.
	TrackingTTL time.Duration `mapstructure:"TRACKING_CACHE_TTL" default:"5m"`
}

// StripeConfig holds the credentials for the checkout provider.
type StripeConfig struct {
	// SecretKey is the provider API secret.
	SecretKey string `mapstructure:"STRIPE_SECRET_KEY" required:"true"`
	// APIURL is the provider base URL, overridable for tests.
	APIURL string `mapstructure:"STRIPE_API_URL" default:"https://api.stripe.com"`
	// Currency is the ISO currency used for every checkout.
	Currency string `mapstructure:"PAYMENT_CURRENCY" default:"usd"`
	// SiteDomain is the frontend origin used to build success and cancel URLs.
	SiteDomain string `mapstructure:"SITE_DOMAIN" required:"true"`
}

// AuthConfig configures bearer token verification.
// Exactly one of JWTSecret or PublicKeyURL is expected.
type AuthConfig struct {
	// JWTSecret verifies HS256 tokens.
	JWTSecret string `mapstructure:"AUTH_JWT_SECRET"`
	// PublicKeyURL serves a PEM RSA public key as {"key": "..."}.
	PublicKeyURL string `mapstructure:"AUTH_PUBLIC_KEY_URL"`
}

// KafkaConfig configures lifecycle event publishing. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers []string `mapstructure:"KAFKA_BROKERS"`
	Topic   string   `mapstructure:"KAFKA_TOPIC" default:"parcel.lifecycle"`
}

// ErrMissingAuth is returned when no token verification method is configured.
var ErrMissingAuth = errors.New("missing required configuration: AUTH_JWT_SECRET or AUTH_PUBLIC_KEY_URL")

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if config.Auth.JWTSecret == "" && config.Auth.PublicKeyURL == "" {
		return nil, ErrMissingAuth
	}

	return &config, nil
}

// processTags binds every tagged field to its env key and registers defaults.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			if err := v.BindEnv(key); err != nil {
				return fmt.Errorf("failed to bind %s: %w", key, err)
			}
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && isZero(val.Field(i)) {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
