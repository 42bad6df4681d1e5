package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, SourceHTTP, cfg.CatalogSource)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 168, cfg.SessionTTLHours)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL())
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "product-api", cfg.Breaker.Name)
	assert.Equal(t, 50.0, cfg.RateLimitRPS)
	assert.Equal(t, 100, cfg.RateLimitBurst)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
}

func TestLoad_NegativeSlowQueryThreshold(t *testing.T) {
	t.Setenv("DB_SLOW_QUERY_THRESHOLD", "-5ms")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.ErrorContains(t, err, "DB_SLOW_QUERY_THRESHOLD")
}

func TestLoad_NegativeRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "-1")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.ErrorContains(t, err, "RATE_LIMIT_RPS")
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.ErrorContains(t, err, "invalid HTTP port")
}

func TestLoad_InvalidOTELSampleRate(t *testing.T) {
	t.Setenv("OTEL_SAMPLE_RATE", "2.0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.ErrorContains(t, err, "OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
}

func TestLoad_CatalogSource(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "postgres", env: map[string]string{"CATALOG_SOURCE": "postgres"}},
		{name: "sqlite", env: map[string]string{"CATALOG_SOURCE": "sqlite", "SQLITE_PATH": "/tmp/catalog.db"}},
		{name: "unknown", env: map[string]string{"CATALOG_SOURCE": "mongo"}, wantErr: "CATALOG_SOURCE must be one of"},
		{name: "relative api url", env: map[string]string{"PRODUCT_API_URL": "products.local"}, wantErr: "PRODUCT_API_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				assert.Nil(t, cfg)
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.env["CATALOG_SOURCE"], cfg.CatalogSource)
		})
	}
}

func TestLoad_SessionSettings(t *testing.T) {
	t.Setenv("SESSION_TTL_HOURS", "24")
	t.Setenv("REGISTRY_SIZE", "500")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 500, cfg.RegistrySize)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_InvalidSessionSettings(t *testing.T) {
	t.Setenv("REGISTRY_SIZE", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "REGISTRY_SIZE must be positive")
}

func TestLoad_CustomRedis(t *testing.T) {
	t.Setenv("REDIS_HOST", "redis.prod")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "redis.prod:6380", cfg.Redis.Addr())
}
