package main

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/openamm/dynfee/internal/config"
	"github.com/openamm/dynfee/internal/logger"
	"github.com/openamm/dynfee/internal/replay"
	"github.com/openamm/dynfee/internal/state"
	"github.com/openamm/dynfee/internal/types"
	"github.com/openamm/dynfee/internal/web"
)

// main is the entry point for the dynfee replay harness.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE"))
	log.Info().Msg("dynfee replay harness starting...")

	// --- 2. Optional Database Connection ---
	if config.DatabaseEnabled {
		dbCfg := state.DBConfig{
			Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
			User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
			DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
		}
		if err := state.InitDB(dbCfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
	}

	// --- 3. Load Policy Parameters ---
	baseParams := config.DefaultPolicyParameters
	if config.DatabaseEnabled {
		stored, err := state.LoadActivePolicyParameters(config.DefaultParametersName)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load active policy parameters, using defaults and saving.")
			if _, err := state.SavePolicyParameters(baseParams, config.DefaultParametersName, config.DefaultParametersVersion, true); err != nil {
				log.Fatal().Err(err).Msg("Failed to save initial default policy parameters.")
			}
		} else {
			baseParams = *stored
		}
	}
	log.Info().Msg("Policy parameters loaded successfully.")

	// --- 4. Optional Web Server ---
	var webServer *web.WebServer
	if config.WebPort != "" {
		webServer = web.NewWebServer(config.WebPort)
		go func() {
			log.Info().Str("port", config.WebPort).Msg("Starting dynfee status API")
			if err := webServer.Start(); err != nil {
				log.Error().Err(err).Msg("Web server failed to start")
			}
		}()
	}

	// --- 5. Run the Scenario ---
	run := executeScenario(baseParams, webServer)

	if config.DatabaseEnabled {
		if _, err := state.SaveReplayRun(run); err != nil {
			log.Fatal().Err(err).Msg("Failed to persist replay run")
		}
	}

	if run.Disqualified {
		log.Error().Str("reason", run.DisqualifiedReason).Msg("Run disqualified")
		os.Exit(1)
	}

	// Keep serving results when the API is enabled; otherwise we are done.
	if webServer != nil {
		log.Info().Msg("Replay finished, status API still serving. Ctrl-C to exit.")
		select {}
	}
}

// executeScenario loads the scenario and tape, replays it and publishes the
// results to the status API.
func executeScenario(baseParams types.PolicyParameters, webServer *web.WebServer) types.ReplayRun {
	scenario, err := config.LoadScenario(config.ScenarioPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load scenario")
	}

	tapePath := scenario.TapePath
	if !filepath.IsAbs(tapePath) {
		tapePath = filepath.Join(filepath.Dir(config.ScenarioPath), tapePath)
	}
	events, err := replay.LoadTape(tapePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load trade tape")
	}
	log.Info().Int("events", len(events)).Str("tape", tapePath).Msg("Trade tape loaded")

	runner, err := replay.NewRunner(scenario, baseParams)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to construct replay runner")
	}

	resolvedParams, err := scenario.ResolveParameters(baseParams)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve scenario parameters")
	}
	if webServer != nil {
		webServer.SetActiveParameters(resolvedParams)
	}

	run, _, err := runner.Run(events)
	if err != nil {
		log.Fatal().Err(err).Msg("Replay failed")
	}
	if webServer != nil {
		webServer.SetLatestRun(run)
	}
	return run
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
