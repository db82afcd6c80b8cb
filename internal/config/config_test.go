package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-area/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "APP_PORT", "PORT", "APP_HOST", "PUBLIC_URL", "APP_AUTHENTICATION_TOKEN", "CITIES_SOURCE",
		"HTTP_TIMEOUT", "CORS_ALLOW_ORIGINS", "SCAN_CONCURRENCY", "JOB_TTL", "JOB_SWEEP_INTERVAL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.PublicURL)
	assert.Empty(t, cfg.AuthToken)
	assert.Equal(t, "data/cities.json", cfg.CitiesSource)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "*", cfg.CORSAllowOrigins)
	assert.Equal(t, 4, cfg.ScanConcurrency)
	assert.Zero(t, cfg.JobTTL)
	assert.Equal(t, time.Minute, cfg.JobSweepInterval)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "9090")
	t.Setenv("APP_HOST", "https://cities.example.com/")
	t.Setenv("PUBLIC_URL", "")
	t.Setenv("APP_AUTHENTICATION_TOKEN", "secret")
	t.Setenv("CITIES_SOURCE", "https://example.com/addresses.json")
	t.Setenv("SCAN_CONCURRENCY", "8")
	t.Setenv("JOB_TTL", "2h")
	t.Setenv("JOB_SWEEP_INTERVAL", "5m")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "https://cities.example.com:9090", cfg.PublicURL)
	assert.Equal(t, "secret", cfg.AuthToken)
	assert.Equal(t, "https://example.com/addresses.json", cfg.CitiesSource)
	assert.Equal(t, 8, cfg.ScanConcurrency)
	assert.Equal(t, 2*time.Hour, cfg.JobTTL)
	assert.Equal(t, 5*time.Minute, cfg.JobSweepInterval)
}

func TestLoadAppPort(t *testing.T) {
	t.Setenv("PUBLIC_URL", "")
	t.Setenv("APP_HOST", "")
	t.Setenv("PORT", "")
	t.Setenv("APP_PORT", "3000")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.PublicURL)

	t.Setenv("PORT", "9090")
	cfg, err = config.Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
}

func TestLoadPublicURLOverride(t *testing.T) {
	t.Setenv("PUBLIC_URL", "https://api.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.PublicURL)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string][2]string{
		"bad port":         {"PORT", "eighty"},
		"bad app port":     {"APP_PORT", "eighty"},
		"bad timeout":      {"HTTP_TIMEOUT", "soon"},
		"bad ttl":          {"JOB_TTL", "forever"},
		"bad interval":     {"JOB_SWEEP_INTERVAL", "often"},
		"zero concurrency": {"SCAN_CONCURRENCY", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("APP_PORT", "")
			t.Setenv(kv[0], kv[1])
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
