package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/aml-forge/sar-engine/pkg/config"
	"github.com/aml-forge/sar-engine/pkg/database"
)

// PingResponse describes the running engine instance.
type PingResponse struct {
	Status             string `json:"status"`
	Service            string `json:"service"`
	Version            string `json:"version"`
	Environment        string `json:"environment"`
	HostingEnvironment string `json:"hosting_environment"`
	LLMProvider        string `json:"llm_provider"`
	GoVersion          string `json:"go_version"`
}

// HealthHandler serves liveness and instance-info endpoints.
type HealthHandler struct {
	cfg    *config.Config
	db     *database.DB
	logger *zap.Logger
}

func NewHealthHandler(cfg *config.Config, db *database.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, db: db, logger: logger}
}

// RegisterRoutes mounts the health endpoints on mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ping", h.Ping)
}

// Health handles GET /health. It reports unhealthy when the database is
// unreachable, since every case operation needs the store.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("Health check failed to reach database", zap.Error(err))
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping handles GET /ping with static instance information.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	response := PingResponse{
		Status:             "ok",
		Service:            h.cfg.AppName,
		Version:            h.cfg.Version,
		Environment:        h.cfg.Env,
		HostingEnvironment: h.cfg.HostingEnvironment,
		LLMProvider:        h.cfg.LLM.Provider,
		GoVersion:          runtime.Version(),
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
