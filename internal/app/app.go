package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/files"
	"salespulse/internal/infrastructure"
	customMiddleware "salespulse/internal/middleware"
	"salespulse/internal/pipeline"
	"salespulse/internal/services"
	handlers "salespulse/internal/transport/http"
	ws "salespulse/internal/websocket"
)

// Application is the API server and everything it owns
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Hub           *ws.Hub
	Reports       *services.ReportService
	Health        *services.HealthService
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PipelineMetrics
	Logger        *slog.Logger

	errorHandler *apierrors.ErrorHandler
	upgrader     websocket.Upgrader
	warmup       chan struct{}
}

// NewApplication wires the server from a validated config. A nil logger
// falls back to the global one.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, apierrors.NewConfigError("configuration is required", nil)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	paths := cfg.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, apierrors.NewStorageError("create directories", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	hubMetrics, err := ws.NewMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create websocket metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		OTelProviders: providers,
		Metrics:       metrics,
		Logger:        logger,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
		warmup:        make(chan struct{}),
	}

	a.Hub = ws.NewHub(ws.Config{
		PingPeriod: cfg.WebSocket.PingPeriod,
		PongWait:   cfg.WebSocket.PongWait,
	}, logger, hubMetrics)

	runner, err := pipeline.NewRunner(pipeline.OptionsFromConfig(cfg), pipeline.Dependencies{
		Logger:     logger,
		Reporter:   pipeline.MultiReporter{a.Hub, pipeline.NewLogReporter(logger)},
		Metrics:    metrics,
		Forecaster: dataprocessing.NewTrendWeekdayForecaster(),
	})
	if err != nil {
		return nil, err
	}
	a.Reports = services.NewReportService(runner, cfg.Server.RunTimeout, logger)
	a.Health = services.NewHealthService(config.AppVersion, paths, a.Reports, a.Hub, logger)

	a.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     a.checkOrigin,
	}

	a.setupRouter(paths)
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

func (a *Application) setupRouter(paths *config.Paths) {
	r := chi.NewRouter()
	a.Router = r

	// RequestID must be first so every log line and problem carries it
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// The websocket route skips timeout and response wrapping
	r.With(customMiddleware.Recoverer(a.Logger)).Get(config.WebSocketEndpoint, a.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		if rl := a.Config.Server.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
		}
		if a.Config.Server.RequestTimeout > 0 {
			r.Use(middleware.Timeout(a.Config.Server.RequestTimeout))
		}

		r.Mount(config.HealthEndpoint, handlers.NewHealthHandler(a.Health, a.Logger).Routes())
		r.Route(config.APIBasePath, func(r chi.Router) {
			r.Mount("/", handlers.NewReportHandler(a.Reports, a.Logger, a.errorHandler).Routes())
			r.Mount("/files", handlers.NewFilesHandler(files.NewDiscovery(paths.ReportsDir), a.Logger, a.errorHandler).Routes())
		})
	})
	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}
}

// Start starts the hub, the HTTP listener and a first pipeline run in the
// background. Listener failures cancel ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.Any("config", a.Config.Summary()))

	a.Hub.Start()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	go a.warmCache(ctx)

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", ln.Addr().String()))
	return nil
}

// warmCache runs the pipeline once so the API has data without a POST
func (a *Application) warmCache(ctx context.Context) {
	defer close(a.warmup)
	if _, err := a.Reports.Run(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Initial pipeline run failed",
			slog.String("error", err.Error()))
	}
}

// Stop shuts the server down gracefully, then the hub and telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	a.Hub.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves until SIGINT or SIGTERM
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx, stop); err != nil {
		return err
	}
	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	return a.Stop(context.Background())
}

// checkOrigin accepts same-host browsers and clients that send no Origin
func (a *Application) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	ok := strings.EqualFold(u.Host, r.Host)
	if !ok {
		a.Logger.WarnContext(r.Context(), "WebSocket origin rejected",
			slog.String("origin", origin),
			slog.String("host", r.Host))
	}
	return ok
}

// handleWebSocket upgrades the connection and hands it to the hub
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := customMiddleware.GetReqID(ctx)
	if reqID == "" {
		reqID = fmt.Sprintf("ws-%d", time.Now().UnixNano())
	}

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		a.Logger.WarnContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")))
		return
	}

	client := a.Hub.Serve(ws.NewConnectionWrapper(conn), reqID, a.Logger)
	a.Logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))
}
