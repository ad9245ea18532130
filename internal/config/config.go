package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port            int
	MaxUploadMB     int
	DefaultTargetKB int
	DefaultQuality  float64
	MaxConcurrent   int
	RateLimitPerSec int
	RateLimitBurst  int
	WorkerCount     int
}

// Load loads configuration from a local .env file (if present) and
// environment variables, with defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Skipping .env: %v", err)
	}

	cfg := &Config{
		Port:            getEnvInt("PORT", 8080),
		MaxUploadMB:     getEnvInt("MAX_UPLOAD_MB", 32),
		DefaultTargetKB: getEnvInt("DEFAULT_TARGET_KB", 500),
		DefaultQuality:  getEnvFloat("DEFAULT_QUALITY", 0.8),
		MaxConcurrent:   getEnvInt("MAX_CONCURRENT", 50),
		RateLimitPerSec: getEnvInt("RATE_LIMIT", 10),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 20),
		WorkerCount:     getEnvInt("WORKER_COUNT", 10),
	}
	return cfg
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
