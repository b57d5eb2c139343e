package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Rate backends.
const (
	BackendTabular  = "tabular"
	BackendPostgres = "postgres"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Rates
	RateBackend   string `envconfig:"RATE_BACKEND" default:"tabular"`
	RateTableFile string `envconfig:"RATE_TABLE_FILE"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`

	// Quoting
	DefaultOrigin    string `envconfig:"DEFAULT_ORIGIN" default:"east"`
	Currency         string `envconfig:"CURRENCY" default:"CNY"`
	QuoteParallelism int    `envconfig:"QUOTE_PARALLELISM" default:"4"`

	// Reference data reloads
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	ReloadEnabled bool   `envconfig:"RELOAD_ENABLED" default:"false"`
	ReloadChannel string `envconfig:"RELOAD_CHANNEL" default:"freightquote:reload"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"freightquote"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.RateBackend {
	case BackendTabular:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("loading config: DATABASE_URL is required for the %s backend", BackendPostgres)
		}
	default:
		return fmt.Errorf("loading config: unknown RATE_BACKEND %q", c.RateBackend)
	}
	if c.QuoteParallelism < 1 {
		return fmt.Errorf("loading config: QUOTE_PARALLELISM must be at least 1")
	}
	return nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("freight.rate_backend", c.RateBackend),
		attribute.String("freight.default_origin", c.DefaultOrigin),
		attribute.String("freight.currency", c.Currency),
		attribute.Bool("freight.reload_enabled", c.ReloadEnabled),
	}
}
