package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "taskgate/internal/errors"
	"taskgate/internal/infrastructure"
	"taskgate/internal/portal"
)

// ActivateRequest is the body of POST /api/activate
type ActivateRequest struct {
	ProductKey string `json:"product_key"`
}

// SubmitRequest is the body of POST /api/submit
type SubmitRequest struct {
	Keyword string `json:"keyword"`
	Email   string `json:"email"`
}

// PortalHandler exposes the view model to the browser
type PortalHandler struct {
	service PortalService
	logger  *slog.Logger
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(service PortalService, logger *slog.Logger) *PortalHandler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &PortalHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "portal")),
	}
}

// Routes returns a chi router for the portal endpoints
func (h *PortalHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/state", h.GetState)
	r.Post("/load", h.Load)
	r.Post("/activate", h.Activate)
	r.Post("/submit", h.Submit)
	return r
}

// GetState handles GET /api/state
func (h *PortalHandler) GetState(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Snapshot())
}

// Load handles POST /api/load, which the page calls when it is (re)loaded
func (h *PortalHandler) Load(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Load(r.Context())
	if err != nil {
		h.renderError(w, r, "load", err)
		return
	}
	render.JSON(w, r, snap)
}

// Activate handles POST /api/activate. Validation and remote failures are
// reported in the returned snapshot, not as HTTP errors.
func (h *PortalHandler) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ActivateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.WarnContext(ctx, "Invalid activation request", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.BadRequest(err).WithTrace(infrastructure.GetTraceID(ctx)))
		return
	}

	snap, err := h.service.Activate(ctx, req.ProductKey)
	if err != nil {
		h.renderError(w, r, "activate", err)
		return
	}

	h.logger.InfoContext(ctx, "Activation handled",
		slog.String("phase", string(snap.Activation.Phase)),
		slog.String("view", string(snap.View)))
	render.JSON(w, r, snap)
}

// Submit handles POST /api/submit
func (h *PortalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SubmitRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.WarnContext(ctx, "Invalid submission request", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.BadRequest(err).WithTrace(infrastructure.GetTraceID(ctx)))
		return
	}

	snap, err := h.service.Submit(ctx, req.Keyword, req.Email)
	if err != nil {
		h.renderError(w, r, "submit", err)
		return
	}

	h.logger.InfoContext(ctx, "Submission handled",
		slog.String("phase", string(snap.Submission.Phase)))
	render.JSON(w, r, snap)
}

// renderError maps portal rejections onto API errors
func (h *PortalHandler) renderError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()

	var apiErr *apierrors.APIError
	switch {
	case errors.Is(err, portal.ErrControlDisabled):
		apiErr = apierrors.ErrControlDisabled
	case errors.Is(err, portal.ErrViewInactive):
		apiErr = apierrors.ErrViewInactive
	case errors.Is(err, portal.ErrClosed):
		apiErr = apierrors.ErrServiceUnavailable
	default:
		apiErr = apierrors.ErrInternalServer
	}

	level := slog.LevelWarn
	if apiErr.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "Portal request rejected",
		slog.String("operation", op),
		slog.String("error", err.Error()),
		slog.Int("status_code", apiErr.StatusCode))

	render.Render(w, r, apiErr.WithTrace(infrastructure.GetTraceID(ctx)))
}
