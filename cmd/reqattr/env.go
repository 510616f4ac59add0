package main

import (
	"os"
)

// Environment variables backing the global flags.
const (
	envConfig    = "REQATTR_CONFIG"
	envLogLevel  = "REQATTR_LOG_LEVEL"
	envLogFormat = "REQATTR_LOG_FORMAT"
)

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
