package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"taskgate/internal/config"
	"taskgate/internal/infrastructure"
	"taskgate/internal/license"
	customMiddleware "taskgate/internal/middleware"
	"taskgate/internal/portal"
	"taskgate/internal/remote"
	"taskgate/internal/session"
	"taskgate/internal/storage"
	"taskgate/internal/tasks"
	handlers "taskgate/internal/transport/http"
	ws "taskgate/internal/websocket"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Store         storage.Store
	Session       *session.Session
	Portal        *portal.Portal
	WebSocketHub  *ws.Hub
	Router        *chi.Mux
	Server        *http.Server
	PagesFS       fs.FS // Embedded page files, may be nil

	unsubscribe func()
}

// NewApplication loads the configuration and builds the application
func NewApplication(pages fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	paths, err := config.GetPaths(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	cfg.Logging.FilePath = paths.Resolve(cfg.Logging.FilePath)

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, paths, logger, pages)
}

// New builds the application from an already loaded configuration
func New(cfg *config.Config, paths *config.Paths, logger *slog.Logger, pages fs.FS) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		PagesFS:       pages,
	}

	if err := a.initializeServices(); err != nil {
		a.release(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices builds the store, session, remote clients, portal and hub
func (a *Application) initializeServices() error {
	store, err := storage.Open(a.Config, a.Paths)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.Store = store
	a.Session = session.New(store, a.Logger)

	exchangeMetrics, err := infrastructure.NewExchangeMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create exchange metrics: %w", err)
	}

	rc := remote.New(remote.Options{
		Timeout:   a.Config.Remote.Timeout,
		UserAgent: a.Config.Remote.UserAgent,
		Tracer:    a.OTelProviders.Tracer,
		Metrics:   exchangeMetrics,
		Logger:    a.Logger,
	})

	a.Portal = portal.New(portal.Options{
		Session:   a.Session,
		Activator: license.NewClient(rc, a.Config.Remote.ActivationURL, a.Logger),
		Submitter: tasks.NewClient(rc, a.Config.Remote.SubmissionURL, a.Logger),
		Logger:    a.Logger,
	})

	hub, err := ws.NewHub(a.Logger, func() any { return a.Portal.Snapshot() }, a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket hub: %w", err)
	}
	a.WebSocketHub = hub
	a.unsubscribe = a.Portal.Subscribe(func(snap portal.Snapshot) {
		hub.BroadcastState(snap)
	})

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → OTel → Logger → Recoverer
	r.Use(customMiddleware.RequestID)

	// The websocket route skips the group below so nothing buffers the upgrade
	r.Get("/ws", a.handleWebSocket)

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)

		if a.PagesFS != nil {
			r.Get("/", handlers.ServeIndex(a.PagesFS, a.Logger))
			r.Handle("/static/*", handlers.StaticFiles(a.PagesFS))
		}
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	portalHandler := handlers.NewPortalHandler(a.Portal, a.Logger)
	healthHandler := handlers.NewHealthHandler(a.Portal, a.WebSocketHub, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", healthHandler.HealthCheck)
		r.Post("/logs", handlers.NewClientLogHandler(a.Logger).Handle)
		r.Mount("/", portalHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Address(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// handleWebSocket upgrades the request and registers the client with the hub
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a.Logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")))

	if err := ws.ServeWS(a.WebSocketHub, w, r, a.Logger); err != nil {
		a.Logger.ErrorContext(ctx, "WebSocket upgrade failed", slog.String("error", err.Error()))
	}
}

// Run serves on the configured address until ctx is cancelled or an
// interrupt arrives, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		a.release(ctx)
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	return a.Serve(ctx, ln)
}

// Serve runs the hub and the HTTP server on ln until ctx is done
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	// First page load: the gate picks the initial view
	if _, err := a.Portal.Load(ctx); err != nil {
		ln.Close()
		a.release(ctx)
		return fmt.Errorf("failed to load portal: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.WebSocketHub.Run(gctx)
	})

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "Application started",
			slog.String("address", "http://"+ln.Addr().String()),
			slog.String("view", string(a.Portal.Snapshot().View)))

		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.WithoutCancel(gctx))
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.WebSocketHub.Stop()

	if err := a.release(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// release closes the portal, the store and the telemetry providers
func (a *Application) release(ctx context.Context) error {
	var errs []error

	if a.unsubscribe != nil {
		a.unsubscribe()
	}

	if a.Portal != nil {
		if err := a.Portal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("portal close: %w", err))
		}
	}

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store close: %w", err))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	return errors.Join(errs...)
}
