package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are loaded in order; values already present in the process
// environment are never overridden.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles makes .env values available to ${VAR} expansion in the config file.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load env file", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("file", name))
	}
}
