// Package config loads server settings from the environment
package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port         string
	DatabasePath string
	ModelDir     string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds

	VisibilityBatchSize int
	FilterBatchSize     int
	IndexBuildTimeout   int // seconds
}

// Load reads the configuration from GOBIM_* environment variables, falling
// back to defaults suitable for local use.
func Load() *Config {
	return &Config{
		Port:         getEnv("GOBIM_PORT", "8321"),
		DatabasePath: getEnv("GOBIM_DB", "gobim.db"),
		ModelDir:     getEnv("GOBIM_MODEL_DIR", "."),
		ReadTimeout:  getEnvAsInt("GOBIM_READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("GOBIM_WRITE_TIMEOUT", 30),

		VisibilityBatchSize: getEnvAsInt("GOBIM_VISIBILITY_BATCH", 1200),
		FilterBatchSize:     getEnvAsInt("GOBIM_FILTER_BATCH", 800),
		IndexBuildTimeout:   getEnvAsInt("GOBIM_INDEX_TIMEOUT", 30),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
