package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIURL              string
	AppEnv              string
	TokenStoreURL       string
	HTTPTimeout         time.Duration
	CacheDedupeInterval time.Duration
	StatsDedupeInterval time.Duration
	BulkMode            string

	// Sandbox API server
	Port        string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmails []string
}

const (
	BulkModeFanout = "fanout"
	BulkModeServer = "server"
)

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		APIURL:              getEnv("API_URL", "http://localhost:8080"),
		AppEnv:              getEnv("APP_ENV", "local"),
		TokenStoreURL:       getEnv("TOKEN_STORE_URL", "file:console.db"),
		HTTPTimeout:         getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		CacheDedupeInterval: getEnvDuration("CACHE_DEDUPE_INTERVAL", 30*time.Second),
		StatsDedupeInterval: getEnvDuration("STATS_DEDUPE_INTERVAL", time.Minute),
		BulkMode:            getEnv("BULK_MODE", BulkModeFanout),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", "file:sandbox.sqlite"),
		JWTSecret:           getEnv("JWT_SECRET", "secret"),
		TokenTTL:            getEnvDuration("TOKEN_TTL", 24*time.Hour),
		AdminEmails:         getEnvList("ADMIN_EMAILS"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
