// ./internal/state/db.go
package state

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS policy_parameters (
			params_id SERIAL PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,
			config_name VARCHAR(255) NOT NULL DEFAULT 'default',
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			base_fee_bps BIGINT NOT NULL, min_fee_bps BIGINT NOT NULL, max_fee_bps BIGINT NOT NULL,
			fast_decay NUMERIC(36, 0) NOT NULL, slow_decay NUMERIC(36, 0) NOT NULL,
			variance_seed NUMERIC(36, 0) NOT NULL,
			regime_enabled BOOLEAN NOT NULL, regime_adjust_bps BIGINT NOT NULL,
			directional_enabled BOOLEAN NOT NULL, directional_adjust_bps BIGINT NOT NULL,
			CONSTRAINT uq_policy_parameters_config_version UNIQUE (config_name, version)
		);
		CREATE INDEX IF NOT EXISTS idx_policy_parameters_config_active_timestamp ON policy_parameters(config_name, is_active, activated_at DESC);

		CREATE TABLE IF NOT EXISTS replay_runs (
			run_id SERIAL PRIMARY KEY,
			run_uuid UUID NOT NULL UNIQUE,
			scenario VARCHAR(255) NOT NULL,
			policy_name VARCHAR(255) NOT NULL,
			events INTEGER NOT NULL,
			transitions INTEGER NOT NULL,
			disqualified BOOLEAN NOT NULL,
			disqualified_reason TEXT NOT NULL DEFAULT '',
			min_fee_bps DOUBLE PRECISION NOT NULL,
			mean_fee_bps DOUBLE PRECISION NOT NULL,
			max_fee_bps DOUBLE PRECISION NOT NULL,
			final_fast_variance NUMERIC(78, 0) NOT NULL,
			final_slow_variance NUMERIC(78, 0) NOT NULL,
			realized_volatility DOUBLE PRECISION NOT NULL,
			markout_y DOUBLE PRECISION NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_replay_runs_scenario_created ON replay_runs(scenario, created_at DESC);
	`
	if _, err := DB.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	log.Info().Msg("Database schema ensured successfully")
	return nil
}
