package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	RedisURL     string
	Port         string
	IsProduction bool

	JWTSecret string
	JWTIssuer string

	// SummaryCacheTTL bounds how long a cached balance summary may be
	// served within one cache generation.
	SummaryCacheTTL         time.Duration
	LowBalanceAlertsEnabled bool

	// RateLimit uses the limiter format, e.g. "100-M" for 100 req/minute.
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "imovelhub-backoffice")
	viper.SetDefault("SUMMARY_CACHE_TTL", "60s")
	viper.SetDefault("LOW_BALANCE_ALERTS_ENABLED", true)
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:             viper.GetString("PGSQL_URL"),
		RedisURL:                viper.GetString("REDIS_URL"),
		Port:                    viper.GetString("PORT"),
		IsProduction:            viper.GetBool("IS_PRODUCTION"),
		JWTSecret:               viper.GetString("JWT_SECRET"),
		JWTIssuer:               viper.GetString("JWT_ISSUER"),
		LowBalanceAlertsEnabled: viper.GetBool("LOW_BALANCE_ALERTS_ENABLED"),
		RateLimit:               viper.GetString("RATE_LIMIT"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	ttlStr := viper.GetString("SUMMARY_CACHE_TTL")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		ttl = 60 * time.Second
		log.Printf("Warning: Invalid value for SUMMARY_CACHE_TTL ('%s'). Defaulting to %s.\n", ttlStr, ttl)
	}
	cfg.SummaryCacheTTL = ttl

	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	return cfg, nil
}
