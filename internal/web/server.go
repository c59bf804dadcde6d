package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/openamm/dynfee/internal/logger"
	"github.com/openamm/dynfee/internal/state"
	"github.com/openamm/dynfee/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes the latest replay results and active parameters as JSON.
type WebServer struct {
	router *mux.Router
	port   string

	mu           sync.RWMutex
	latestRun    *types.ReplayRun
	activeParams *types.PolicyParameters
	startedAt    time.Time
}

// NewWebServer creates a new web server instance
func NewWebServer(port string) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:    mux.NewRouter(),
		port:      port,
		startedAt: time.Now().UTC(),
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/runs/latest", ws.handleLatestRun).Methods("GET")
	api.HandleFunc("/parameters/active", ws.handleActiveParameters).Methods("GET")
}

// Start begins serving. Blocks until the listener fails.
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Web server listening")
	return http.ListenAndServe(":"+ws.port, ws.router)
}

// SetLatestRun publishes a finished run to the API.
func (ws *WebServer) SetLatestRun(run types.ReplayRun) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.latestRun = &run
}

// SetActiveParameters publishes the parameter set in use.
func (ws *WebServer) SetActiveParameters(params types.PolicyParameters) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.activeParams = &params
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, map[string]any{
		"status":     "ok",
		"uptime":     time.Since(ws.startedAt).String(),
		"goroutines": runtime.NumGoroutine(),
	})
}

func (ws *WebServer) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	ws.mu.RLock()
	run := ws.latestRun
	ws.mu.RUnlock()

	// Fall back to the database when this process has not produced a run
	// itself but persistence is wired up.
	if run == nil && state.DB != nil {
		stored, err := state.LatestReplayRun()
		if err != nil {
			webLogger.Error().Err(err).Msg("Failed to load latest run from database")
			http.Error(w, "failed to load latest run", http.StatusInternalServerError)
			return
		}
		run = stored
	}

	if run == nil {
		http.Error(w, "no replay run recorded yet", http.StatusNotFound)
		return
	}
	ws.writeJSON(w, run)
}

func (ws *WebServer) handleActiveParameters(w http.ResponseWriter, r *http.Request) {
	ws.mu.RLock()
	params := ws.activeParams
	ws.mu.RUnlock()

	if params == nil {
		http.Error(w, "no active parameters published", http.StatusNotFound)
		return
	}
	ws.writeJSON(w, params)
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
