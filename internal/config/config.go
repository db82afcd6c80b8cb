package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Env  string
	Port string

	// PublicURL prefixes the result locators handed to clients.
	PublicURL string

	// AuthToken is the expected bearer token; empty disables authentication.
	AuthToken string

	// CitiesSource is a file path or http(s) URL of the city dataset.
	CitiesSource string

	HTTPTimeout      time.Duration
	CORSAllowOrigins string

	// ScanConcurrency caps how many area scans run at once.
	ScanConcurrency int

	// Job store retention.
	JobTTL           time.Duration // finished jobs older than this are evicted (0 = keep forever)
	JobSweepInterval time.Duration // how often eviction runs
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Env = getenvDefault("APP_ENV", "production")
	// APP_PORT wins over the generic PORT.
	cfg.Port = getenvDefault("APP_PORT", getenvDefault("PORT", "8080"))
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", cfg.Port, err)
	}

	host := strings.TrimRight(getenvDefault("APP_HOST", "http://localhost"), "/")
	cfg.PublicURL = getenvDefault("PUBLIC_URL", host+":"+cfg.Port)

	cfg.AuthToken = os.Getenv("APP_AUTHENTICATION_TOKEN")
	cfg.CitiesSource = getenvDefault("CITIES_SOURCE", "data/cities.json")
	cfg.CORSAllowOrigins = getenvDefault("CORS_ALLOW_ORIGINS", "*")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.ScanConcurrency = getenvInt("SCAN_CONCURRENCY", 4)
	if cfg.ScanConcurrency <= 0 {
		return nil, fmt.Errorf("invalid SCAN_CONCURRENCY: must be positive, got %d", cfg.ScanConcurrency)
	}

	if cfg.JobTTL, err = getenvDuration("JOB_TTL", "0s"); err != nil {
		return nil, err
	}
	if cfg.JobSweepInterval, err = getenvDuration("JOB_SWEEP_INTERVAL", "1m"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
