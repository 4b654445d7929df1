package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string // default: 8080

	// Database
	PostgresDSN string

	// Cache
	RedisAddr string

	// Upstream billing service (owns user keys, spend and budgets)
	SpendServiceURL string

	// Tool schemas
	SchemaPath string // default: schemas/tools.yaml

	// Media storage
	MediaDir     string // default: ./media
	MediaBaseURL string // public URL prefix for stored files

	// Providers
	RunpodAPIKey string
	OpenAIAPIKey string
	GoogleAPIKey string

	// Observability
	Environment          string // default: "development"
	OTELExporterType     string // "stdout" or "otlp"
	OTELExporterEndpoint string // default: "localhost:4317"

	// Rate Limiting
	DefaultRateLimitRPM int64 // generations per minute, default: 60
}

func Load() (*Config, error) {
	// Load .env file if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		PostgresDSN:          os.Getenv("POSTGRES_DSN"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		SpendServiceURL:      os.Getenv("SPEND_SERVICE_URL"),
		SchemaPath:           getEnv("SCHEMA_PATH", "schemas/tools.yaml"),
		MediaDir:             getEnv("MEDIA_DIR", "./media"),
		MediaBaseURL:         os.Getenv("MEDIA_BASE_URL"),
		RunpodAPIKey:         os.Getenv("RUNPOD_API_KEY"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		GoogleAPIKey:         os.Getenv("GOOGLE_API_KEY"),
		Environment:          getEnv("APP_ENV", "development"),
		OTELExporterType:     getEnv("OTEL_EXPORTER_TYPE", "stdout"),
		OTELExporterEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
	}

	rpmStr := getEnv("DEFAULT_RATE_LIMIT_RPM", "60")
	rpm, err := strconv.ParseInt(rpmStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_RATE_LIMIT_RPM: %w", err)
	}
	cfg.DefaultRateLimitRPM = rpm

	if cfg.MediaBaseURL == "" {
		cfg.MediaBaseURL = fmt.Sprintf("http://localhost:%s/media", cfg.Port)
	}

	// Validation
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required")
	}
	if cfg.SpendServiceURL == "" {
		return nil, fmt.Errorf("SPEND_SERVICE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
