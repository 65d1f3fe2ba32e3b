package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers understood by STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StorageDisk     = "disk"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	SERVER_ADDR string

	STORAGE_DRIVER string
	DATA_PATH      string

	DB_USERNAME string
	DB_PASSWORD string
	DB_HOST     string
	DB_PORT     string
	DB_NAME     string
	DISABLE_TLS string

	REDIS_ADDR     string
	REDIS_PASSWORD string
	REDIS_DB       int

	// Admin tokens are HS256 JWTs signed with this secret
	ADMIN_TOKEN_SECRET string
	ADMIN_TOKEN_TTL    time.Duration

	FALLBACK_PROJECTS_PATH string
	ALLOWED_ORIGINS        []string

	// Otel
	OTEL_EXPORTER_OTLP_ENDPOINT string
	OTEL_SERVICE_NAME           string

	LOG_LEVEL slog.Level
}

func ReadConfig() *Config {
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			redisDB = db
		}
	}

	tokenTTL := 24 * time.Hour
	if ttlStr := os.Getenv("ADMIN_TOKEN_TTL"); ttlStr != "" {
		if ttl, err := time.ParseDuration(ttlStr); err == nil && ttl > 0 {
			tokenTTL = ttl
		}
	}

	return &Config{
		SERVER_ADDR: GetEnvOrDefault("SERVER_ADDR", "0.0.0.0:6060"),

		STORAGE_DRIVER: strings.ToLower(GetEnvOrDefault("STORAGE_DRIVER", StorageDisk)),
		DATA_PATH:      GetEnvOrDefault("DATA_PATH", "data"),

		DB_USERNAME: os.Getenv("DB_USERNAME"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_HOST:     GetEnvOrDefault("DB_HOST", "localhost"),
		DB_PORT:     GetEnvOrDefault("DB_PORT", "5432"),
		DB_NAME:     GetEnvOrDefault("DB_NAME", "folio"),
		DISABLE_TLS: os.Getenv("DISABLE_TLS"),

		REDIS_ADDR:     GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),
		REDIS_DB:       redisDB,

		ADMIN_TOKEN_SECRET: os.Getenv("ADMIN_TOKEN_SECRET"),
		ADMIN_TOKEN_TTL:    tokenTTL,

		FALLBACK_PROJECTS_PATH: os.Getenv("FALLBACK_PROJECTS_PATH"),
		ALLOWED_ORIGINS:        splitList(os.Getenv("ALLOWED_ORIGINS")),

		OTEL_EXPORTER_OTLP_ENDPOINT: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTEL_SERVICE_NAME:           GetEnvOrDefault("OTEL_SERVICE_NAME", "folio"),

		LOG_LEVEL: parseLevel(os.Getenv("LOG_LEVEL")),
	}
}

// PostgresDSN builds the connection string for the postgres driver.
func (c *Config) PostgresDSN() string {
	str := "postgresql://" + c.DB_USERNAME + ":" + c.DB_PASSWORD + "@" + c.DB_HOST + ":" + c.DB_PORT + "/" + c.DB_NAME
	if c.DISABLE_TLS == "true" {
		str = str + "?sslmode=disable"
	}
	return str
}

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}
