package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"taskgate/internal/config"
)

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	View      string    `json:"view"`
	Clients   int       `json:"clients"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientCounter reports the number of connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	service PortalService
	clients ClientCounter
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler. clients may be nil.
func NewHealthHandler(service PortalService, clients ClientCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		clients: clients,
		started: time.Now(),
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Version:   config.AppVersion,
		View:      string(h.service.Snapshot().View),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
	if h.clients != nil {
		resp.Clients = h.clients.ClientCount()
	}
	render.JSON(w, r, resp)
}
