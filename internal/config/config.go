package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/tracing"
)

// Catalog source kinds.
const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort       int           `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	PprofCIDRs     []string      `env:"PPROF_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
	CORSOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"100"`

	// Catalog
	CatalogSource      string        `env:"CATALOG_SOURCE" envDefault:"http"`
	CatalogLoadTimeout time.Duration `env:"CATALOG_LOAD_TIMEOUT" envDefault:"10s"`
	ProductAPIURL      string        `env:"PRODUCT_API_URL" envDefault:"http://localhost:8001"`
	SQLitePath         string        `env:"SQLITE_PATH" envDefault:"storefront.db"`
	SlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Sessions (default TTL: 7 days)
	SessionTTLHours int `env:"SESSION_TTL_HOURS" envDefault:"168"`
	RegistrySize    int `env:"REGISTRY_SIZE" envDefault:"10000"`

	// Kafka. No brokers means cart events are dropped.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	Redis      database.RedisConfig
	Postgres   database.PostgresConfig
	Tracing    tracing.Config
	ProductAPI httpclient.Config
	Breaker    httpclient.CircuitBreakerConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SessionTTL is the lifetime of an idle session snapshot.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.CatalogSource {
	case SourceHTTP:
		u, err := url.Parse(c.ProductAPIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("PRODUCT_API_URL must be an absolute URL, got %q", c.ProductAPIURL)
		}
	case SourcePostgres:
	case SourceSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite catalog source")
		}
	default:
		return fmt.Errorf("CATALOG_SOURCE must be one of http, postgres, sqlite, got %q", c.CatalogSource)
	}
	if c.SlowQueryThreshold < 0 {
		return fmt.Errorf("DB_SLOW_QUERY_THRESHOLD must not be negative, got %s", c.SlowQueryThreshold)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", c.SessionTTLHours)
	}
	if c.RegistrySize < 1 {
		return fmt.Errorf("REGISTRY_SIZE must be positive, got %d", c.RegistrySize)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.Tracing.SampleRate)
	}
	return nil
}
