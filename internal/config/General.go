package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// AppConfig holds all daemon configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// LogLevel is one of debug, info, warn or error.
	LogLevel string
	// LogFormat is "console" for human readable output or "json".
	LogFormat string

	// WebPort is the port the HTTP API listens on.
	WebPort string

	// VaultDefinitionPath points at the YAML file describing the vault.
	VaultDefinitionPath string

	// SnapshotSchedule is the cron spec the node persists snapshots on.
	SnapshotSchedule string

	// StoreBackend selects where events and snapshots go.
	StoreBackend string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// VAULT_DEFINITION is always required; the DB_* variables only for the postgres backend.
func LoadConfig() error {
	log.Info().Msg("Loading daemon configuration from environment variables...")

	var err error

	LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	LogFormat = getEnvOrDefault("LOG_FORMAT", "console")
	if LogFormat != "console" && LogFormat != "json" {
		return errors.New("environment variable LOG_FORMAT must be console or json, got: " + LogFormat)
	}

	WebPort = getEnvOrDefault("WEB_PORT", "8080")

	VaultDefinitionPath, err = getEnv("VAULT_DEFINITION")
	if err != nil {
		return err
	}

	SnapshotSchedule = getEnvOrDefault("SNAPSHOT_SCHEDULE", DefaultSnapshotSchedule)
	if _, err := cron.ParseStandard(SnapshotSchedule); err != nil {
		return errors.New("environment variable SNAPSHOT_SCHEDULE is not a valid cron spec: " + err.Error())
	}

	StoreBackend = getEnvOrDefault("STORE_BACKEND", StoreBackendMemory)
	switch StoreBackend {
	case StoreBackendMemory:
	case StoreBackendPostgres:
		if err := loadDBConfig(); err != nil {
			return err
		}
	default:
		return errors.New("environment variable STORE_BACKEND must be postgres or memory, got: " + StoreBackend)
	}

	log.Debug().
		Str("VaultDefinition", VaultDefinitionPath).
		Str("StoreBackend", StoreBackend).
		Str("SnapshotSchedule", SnapshotSchedule).
		Str("WebPort", WebPort).
		Msg("Configuration loaded successfully.")

	return nil
}

func loadDBConfig() error {
	var err error

	DBHost = getEnvOrDefault("DB_HOST", "localhost")
	DBPort, err = getEnvAsIntOrDefault("DB_PORT", 5432)
	if err != nil {
		return err
	}
	DBUser, err = getEnv("DB_USER")
	if err != nil {
		return err
	}
	DBPassword = getEnvOrDefault("DB_PASSWORD", "")
	DBName, err = getEnv("DB_NAME")
	if err != nil {
		return err
	}
	DBSSLMode = getEnvOrDefault("DB_SSLMODE", "disable")
	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvOrDefault retrieves a string environment variable, falling back when unset.
func getEnvOrDefault(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvAsIntOrDefault retrieves an environment variable as an int. Returns error if invalid.
func getEnvAsIntOrDefault(key string, fallback int) (int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int, got: " + valueStr)
	}
	return value, nil
}
