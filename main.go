package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/pflag"

	"galry/internal/filesystem"
	"galry/internal/handlers"
	"galry/internal/logging"
	"galry/internal/memory"
	"galry/internal/metrics"
	"galry/internal/middleware"
	"galry/internal/startup"
	"galry/internal/variant"
)

func main() {
	startTime := time.Now()

	memConfig := memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Filesystem metrics are labelled by volume
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"root":   config.RootDir,
		"thumbs": config.ThumbsDir,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()
	build := startup.GetBuildInfo()
	metrics.SetAppInfo(build.Version, build.Commit, build.GoVersion)

	// Initialize variant engine
	gen, cleanup, err := variant.NewGenerator(config.ImageBackend, memConfig.MaxSourcePixels())
	if err != nil {
		startup.LogFatal("Failed to initialize image backend: %v", err)
	}
	defer cleanup()
	cache := variant.New(gen, variant.WithObserver(metrics.NewVariantObserver()))
	startup.LogVariantEngineInit(config.ImageBackend, config.Policy())

	// Cache inventory gauges
	var collector *metrics.Collector
	if config.MetricsEnabled && config.InventoryInterval > 0 {
		collector = metrics.NewCollector(inventoryProvider(config), config.InventoryInterval)
		collector.Start()
	}

	// Initialize handlers
	h := handlers.New(cache, config)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggingConfig.Software = "galry " + build.Version
	handler := middleware.Logger(loggingConfig)(router)

	// Create server
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	done := make(chan struct{})
	go handleShutdown(srv, metricsSrv, collector, done)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

// inventoryProvider scans the cache the configured policy writes to.
func inventoryProvider(config *startup.Config) metrics.InventoryProvider {
	policy := config.Policy()
	return metrics.InventoryFunc(func() (variant.Inventory, error) {
		return variant.ScanInventory(context.Background(), config.RootDir, policy)
	})
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	// Album listings
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Compression(middleware.DefaultCompressionConfig()))
	api.HandleFunc("/album", h.ListAlbum).Methods(http.MethodGet)
	api.HandleFunc("/album/{path:.*}", h.ListAlbum).Methods(http.MethodGet)

	// Images and their scaled variants
	r.HandleFunc("/_/{what}/{path:.*}", h.ServeVariant).Methods(http.MethodGet, http.MethodHead)

	return r
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	serveMux := http.NewServeMux()
	serveMux.Handle("/metrics", h.MetricsHandler())
	return &http.Server{
		Addr:              ":" + port,
		Handler:           serveMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, done chan<- struct{}) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if collector != nil {
		startup.LogShutdownStep("Stopping inventory collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Inventory collector stopped")
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownComplete()
}
