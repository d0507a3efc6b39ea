package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	HTTPAddr     string
	DBDSN        string
	JWTSecret    string
	LogLevel     string

	// Periodic trigger settings for the recurring booking scheduler.
	SchedulerEnabled     bool
	SchedulerCron        string
	SchedulerLocation    *time.Location
	SchedulerLookahead   int
	SchedulerConcurrency int
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Log level (default: info)
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for validating tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg.SchedulerEnabled, err = getEnvAsBool("SCHEDULER_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_ENABLED: %w", err)
	}

	// Daily at 02:00 by default
	cfg.SchedulerCron = getEnv("SCHEDULER_CRON", "0 2 * * *")

	tz := getEnv("SCHEDULER_TIMEZONE", "UTC")
	cfg.SchedulerLocation, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_TIMEZONE: %w", err)
	}

	cfg.SchedulerLookahead, err = getEnvAsInt("SCHEDULER_LOOKAHEAD_DAYS", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_LOOKAHEAD_DAYS: %w", err)
	}
	if cfg.SchedulerLookahead < 0 {
		return nil, fmt.Errorf("SCHEDULER_LOOKAHEAD_DAYS must not be negative")
	}

	cfg.SchedulerConcurrency, err = getEnvAsInt("SCHEDULER_CONCURRENCY", 4)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_CONCURRENCY: %w", err)
	}
	if cfg.SchedulerConcurrency < 1 {
		cfg.SchedulerConcurrency = 1
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}
	return val, nil
}
