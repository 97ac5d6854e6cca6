package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/dyluth/burrow/internal/fortress"
	"github.com/dyluth/burrow/internal/observer"
	"github.com/dyluth/burrow/pkg/blackboard"
)

// HealthServer serves the health check and the live observer feed for a run.
type HealthServer struct {
	addr     string
	runID    string
	fortress *fortress.Fortress
	client   *blackboard.Client
	hub      *observer.Hub

	listener net.Listener
	server   *http.Server
}

// NewHealthServer creates a health server on addr. client and hub may be nil.
func NewHealthServer(addr, runID string, f *fortress.Fortress, client *blackboard.Client, hub *observer.Hub) *HealthServer {
	return &HealthServer{
		addr:     addr,
		runID:    runID,
		fortress: f,
		client:   client,
		hub:      hub,
	}
}

// Start binds the listener and serves in the background.
func (h *HealthServer) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.healthCheckHandler)
	if h.hub != nil {
		mux.Handle("/ws", h.hub.Handler())
	}

	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.addr, err)
	}
	h.listener = listener

	h.server = &http.Server{
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}

	// Start server in background
	go func() {
		if err := h.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("[Orchestrator] Health server error: %v", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (h *HealthServer) Addr() string {
	if h.listener == nil {
		return h.addr
	}
	return h.listener.Addr().String()
}

// Shutdown gracefully shuts down the server.
func (h *HealthServer) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

// healthCheckHandler handles GET /healthz requests.
// Returns 503 only when a configured Redis ledger cannot be reached.
func (h *HealthServer) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status: "healthy",
		RunID:  h.runID,
		Redis:  "disabled",
	}
	if h.fortress != nil {
		summary := h.fortress.Summary()
		response.GoblinsReporting = summary.Reporting()
		response.TotalOre = summary.Total
		response.Deposits = summary.Deposits
	}

	status := http.StatusOK
	if h.client != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.client.Ping(ctx); err != nil {
			response.Status = "unhealthy"
			response.Redis = "disconnected"
			response.Error = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			response.Redis = "connected"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// HealthResponse is the JSON response structure for health checks.
type HealthResponse struct {
	Status           string `json:"status"`
	RunID            string `json:"run_id"`
	GoblinsReporting int    `json:"goblins_reporting"`
	TotalOre         uint64 `json:"total_ore"`
	Deposits         int    `json:"deposits"`
	Redis            string `json:"redis"`
	Error            string `json:"error,omitempty"`
}
