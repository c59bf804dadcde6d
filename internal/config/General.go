package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment
// variables. These are populated at startup by LoadConfig.
var (
	// ScenarioPath is the YAML scenario describing the replay run.
	ScenarioPath string

	// WebPort is the port for the status API (empty disables the server).
	WebPort string

	// DatabaseEnabled controls whether parameters and run summaries are
	// persisted to Postgres.
	DatabaseEnabled bool
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. Only the scenario path is required.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	ScenarioPath, err = getEnv("DYNFEE_SCENARIO")
	if err != nil {
		return err
	}

	WebPort = os.Getenv("DYNFEE_WEB_PORT")

	DatabaseEnabled, err = getEnvAsBoolWithDefault("DYNFEE_DB_ENABLED", false)
	if err != nil {
		return err
	}

	log.Debug().
		Str("ScenarioPath", ScenarioPath).
		Str("WebPort", WebPort).
		Bool("DatabaseEnabled", DatabaseEnabled).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsBoolWithDefault retrieves an environment variable as a bool,
// falling back to the default when unset.
func getEnvAsBoolWithDefault(key string, defaultValue bool) (bool, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, errors.New("environment variable " + key + " must be a valid bool, got: " + valueStr)
	}
	return value, nil
}
