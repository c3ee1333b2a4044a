// Package config loads application configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port         string
	GeminiAPIKey string
	DatabaseURL  string
	UploadDir    string
	LogLevel     string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "5000"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		UploadDir:    getEnv("UPLOAD_DIR", "uploads"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}
