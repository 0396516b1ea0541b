package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/flowgallery/internal/api/http"
	"github.com/GriffinCanCode/flowgallery/internal/api/middleware"
	"github.com/GriffinCanCode/flowgallery/internal/domain/catalog"
	"github.com/GriffinCanCode/flowgallery/internal/domain/flows"
	"github.com/GriffinCanCode/flowgallery/internal/domain/gallery"
	"github.com/GriffinCanCode/flowgallery/internal/domain/registry"
	"github.com/GriffinCanCode/flowgallery/internal/flowstore"
	"github.com/GriffinCanCode/flowgallery/internal/infrastructure/config"
	"github.com/GriffinCanCode/flowgallery/internal/infrastructure/logging"
	"github.com/GriffinCanCode/flowgallery/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/flowgallery/internal/providers/sdlc"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	gallery  *gallery.Gallery
	registry *registry.Registry
	flows    *flows.Manager
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing Flow Gallery Server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Bool("flow_store", cfg.FlowStore.Enabled()),
		zap.String("template_id", cfg.FlowStore.TemplateID),
	)

	// Initialize metrics first (needed by other components)
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(promRegistry)

	// Template registry, seeded with the templates shipped in the binary
	reg := registry.New(registry.WithObserver(func(stats registry.Stats) {
		metrics.SetRegistry(stats.Templates, stats.Categories, stats.OverriddenAt)
	}))
	seeded := catalog.Seed(reg, catalog.FS(), logger.Component("catalog"))
	if seeded.Loaded == 0 {
		return nil, errors.New("no templates could be loaded from the catalog")
	}

	store := flowstore.New(flowstore.Config{
		BaseURL: cfg.FlowStore.URL,
		APIKey:  cfg.FlowStore.APIKey,
		Timeout: cfg.FlowStore.Timeout,
		Retries: cfg.FlowStore.Retries,
	}, flowstore.WithLogger(logger.Logger), flowstore.WithRecorder(metrics))
	if !store.Enabled() {
		logger.Warn("Flow store not configured, serving the bundled Business Analyst template")
	}

	flowManager := flows.NewManager().WithMetrics(metrics)
	gal := gallery.New(reg, store, flowManager,
		gallery.WithLogger(logger.Logger),
		gallery.WithTemplateID(cfg.FlowStore.TemplateID),
		gallery.WithFetchTimeout(cfg.FlowStore.Timeout*time.Duration(cfg.FlowStore.Retries+1)),
	)

	sdlcService := sdlc.NewService(sdlc.Config{
		AzureDevOpsURL: cfg.SDLC.AzureDevOpsURL,
		OpenAIAPIKey:   cfg.SDLC.OpenAIAPIKey,
		OpenAIModel:    cfg.SDLC.OpenAIModel,
		OpenAIBaseURL:  cfg.SDLC.OpenAIBaseURL,
		Timeout:        cfg.SDLC.Timeout,
	}, sdlc.WithLogger(logger.Logger), sdlc.WithRecorder(metrics))

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Recovered from panic",
			zap.Any("panic", recovered),
			zap.String("request_id", middleware.GetRequestID(c.Request.Context())),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	// Register routes
	handlers := apihttp.NewHandlers(gal, reg, flowManager, sdlcService, logger.Logger, store.Enabled())
	handlers.Register(router)

	// Metrics endpoints
	metricsAggregator := apihttp.NewMetricsAggregator(metrics, reg, flowManager)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))
	router.GET("/metrics/json", metricsAggregator.GetAggregatedMetrics)

	logger.Info("Server initialized successfully",
		zap.Int("templates", seeded.Loaded),
		zap.Int("templates_failed", seeded.Failed),
	)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		gallery:  gal,
		registry: reg,
		flows:    flowManager,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run refreshes the Business Analyst template in the background and serves
// HTTP until Close is called
func (s *Server) Run() error {
	s.gallery.Start()

	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	err := s.http.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
		err = fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	// Let in-flight template refreshes finish
	s.gallery.Wait()
	s.logger.Info("Template refreshes drained", zap.Int("flows", s.flows.Stats().Total))

	// Sync logger before exit
	s.logger.Sync()

	return err
}
