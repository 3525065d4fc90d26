// Package config loads application configuration from environment variables,
// with a best-effort .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDBPath       = "./precifica.db"
	defaultPort         = "8080"
	defaultAppEnv       = "development"
	defaultHistoryLimit = 50
	defaultCacheTTL     = 5 * time.Minute
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv string
	Port   string
	DBPath string

	// APIToken, when set, is required as a bearer token on /api routes.
	APIToken string

	HistoryLimit int

	// OMIE ERP credentials. An empty OmieBaseURL switches the product
	// lookup to the built-in demo catalog.
	OmieBaseURL   string
	OmieAppKey    string
	OmieAppSecret string

	// RedisAddr, when set, enables product lookup caching.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

// Load reads environment variables and returns a populated Config.
// A local .env file is loaded first when present; production should rely on
// real environment injection.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppEnv:        getEnv("APP_ENV", defaultAppEnv),
		Port:          getEnv("PORT", defaultPort),
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		APIToken:      os.Getenv("API_TOKEN"),
		HistoryLimit:  getEnvInt("HISTORY_LIMIT", defaultHistoryLimit),
		OmieBaseURL:   os.Getenv("OMIE_BASE_URL"),
		OmieAppKey:    os.Getenv("OMIE_APP_KEY"),
		OmieAppSecret: os.Getenv("OMIE_APP_SECRET"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", defaultCacheTTL),
	}
}

// IsDev reports whether the app runs in development mode.
func (c Config) IsDev() bool {
	return c.AppEnv != "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
