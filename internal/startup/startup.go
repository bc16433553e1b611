package startup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/pflag"

	"galry/internal/logging"
	"galry/internal/variant"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// Image backends accepted by --image-backend.
const (
	BackendImaging = variant.BackendImaging
	BackendVips    = variant.BackendVips
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	RootDir          string
	ThumbsDir        string
	ReadOnly         bool
	ZoomShowsPreview bool
	ImageBackend     string

	Port              string
	MetricsPort       string
	MetricsEnabled    bool
	InventoryInterval time.Duration

	LogStaticFiles  bool
	LogHealthChecks bool
}

// Policy returns the variant cache policy selected by the configuration.
// Read-only wins over an alternate thumbs directory.
func (c *Config) Policy() variant.Policy {
	return variant.PolicyFor(c.ThumbsDir, c.ReadOnly)
}

// NewFlagSet declares the server flags on a new FlagSet. Every flag takes its
// default from the environment variable named in its usage string.
func NewFlagSet(cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("galry", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.StringVar(&cfg.RootDir, "root-dir", getEnv("GALRY_ROOT_DIR", ""),
		"directory tree of albums to serve (env GALRY_ROOT_DIR, or first argument)")
	fs.StringVar(&cfg.ThumbsDir, "thumbs-dir", getEnv("GALRY_THUMBS_DIR", ""),
		"store cached variants under this directory instead of beside the images (env GALRY_THUMBS_DIR)")
	fs.BoolVar(&cfg.ReadOnly, "read-only", getEnvBool("GALRY_READ_ONLY", false),
		"never write cached variants; scale in memory on every request (env GALRY_READ_ONLY)")
	fs.BoolVar(&cfg.ZoomShowsPreview, "zoom-shows-preview", getEnvBool("GALRY_ZOOM_SHOWS_PREVIEW", false),
		"tell the client to open previews instead of originals when zooming (env GALRY_ZOOM_SHOWS_PREVIEW)")
	fs.StringVar(&cfg.ImageBackend, "image-backend", getEnv("GALRY_IMAGE_BACKEND", BackendImaging),
		"image scaling backend: imaging or vips (env GALRY_IMAGE_BACKEND)")
	fs.StringVar(&cfg.Port, "port", getEnv("PORT", "8080"),
		"HTTP listen port (env PORT)")
	fs.StringVar(&cfg.MetricsPort, "metrics-port", getEnv("METRICS_PORT", "9090"),
		"Prometheus metrics listen port (env METRICS_PORT)")
	fs.BoolVar(&cfg.MetricsEnabled, "metrics-enabled", getEnvBool("METRICS_ENABLED", true),
		"serve Prometheus metrics (env METRICS_ENABLED)")
	fs.DurationVar(&cfg.InventoryInterval, "inventory-interval", getEnvDuration("GALRY_INVENTORY_INTERVAL", 10*time.Minute),
		"how often cache size metrics are refreshed, 0 disables (env GALRY_INVENTORY_INTERVAL)")
	fs.BoolVar(&cfg.LogStaticFiles, "log-static-files", getEnvBool("LOG_STATIC_FILES", false),
		"log requests for static assets (env LOG_STATIC_FILES)")
	fs.BoolVar(&cfg.LogHealthChecks, "log-health-checks", getEnvBool("LOG_HEALTH_CHECKS", true),
		"log health check requests (env LOG_HEALTH_CHECKS)")
	fs.String("log-level", logging.GetLevel().String(),
		"debug, info, warn or error (env GALRY_LOG_LEVEL, LOG_LEVEL)")

	return fs
}

// ParseConfig parses command-line arguments (without the program name) into
// a Config without touching the filesystem. The root directory may be given
// as the first positional argument.
func ParseConfig(args []string, output io.Writer) (*Config, error) {
	cfg := &Config{}
	fs := NewFlagSet(cfg)
	if output != nil {
		fs.SetOutput(output)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.Changed("log-level") {
		value, _ := fs.GetString("log-level")
		level, ok := logging.ParseLevel(value)
		if !ok {
			return nil, fmt.Errorf("invalid --log-level %q", value)
		}
		logging.SetLevel(level)
	}

	rest := fs.Args()
	if cfg.RootDir == "" && len(rest) > 0 {
		cfg.RootDir, rest = rest[0], rest[1:]
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}
	if cfg.RootDir == "" {
		return nil, errors.New("root directory is required (--root-dir or GALRY_ROOT_DIR)")
	}

	switch cfg.ImageBackend {
	case BackendImaging, BackendVips:
	default:
		return nil, fmt.Errorf("unknown image backend %q (want %s or %s)", cfg.ImageBackend, BackendImaging, BackendVips)
	}

	return cfg, nil
}

// LoadConfig parses args, validates the directories and logs the resulting
// configuration.
func LoadConfig(args []string) (*Config, error) {
	cfg, err := ParseConfig(args, os.Stderr)
	if err != nil {
		return nil, err
	}

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  ROOT_DIR:            %s", cfg.RootDir)
	logging.Info("  THUMBS_DIR:          %s", orDefault(cfg.ThumbsDir, "(beside images)"))
	logging.Info("  READ_ONLY:           %v", cfg.ReadOnly)
	logging.Info("  ZOOM_SHOWS_PREVIEW:  %v", cfg.ZoomShowsPreview)
	logging.Info("  IMAGE_BACKEND:       %s", cfg.ImageBackend)
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  INVENTORY_INTERVAL:  %v", cfg.InventoryInterval)
	logging.Info("  LOG_STATIC_FILES:    %v", cfg.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := cfg.resolveDirectories(); err != nil {
		return nil, err
	}

	logging.Info("")
	logging.Info("  Cache policy: %s", describePolicy(cfg.Policy()))

	return cfg, nil
}

// resolveDirectories makes the configured directories absolute, requires the
// root to be an existing directory and prepares the thumbs directory.
func (c *Config) resolveDirectories() error {
	root, err := filepath.Abs(c.RootDir)
	if err != nil {
		return fmt.Errorf("failed to resolve root directory path: %w", err)
	}
	c.RootDir = root
	logging.Info("  Root directory (absolute): %s", root)

	if err := checkDirectory(root); err != nil {
		return fmt.Errorf("root directory %s: %w", root, err)
	}

	if c.ThumbsDir == "" {
		return nil
	}
	thumbs, err := filepath.Abs(c.ThumbsDir)
	if err != nil {
		return fmt.Errorf("failed to resolve thumbs directory path: %w", err)
	}
	c.ThumbsDir = thumbs
	logging.Info("  Thumbs directory (absolute): %s", thumbs)

	if !c.ReadOnly {
		setupThumbsDir(thumbs)
	}
	return nil
}

// setupThumbsDir creates the alternate cache directory. Failure is not fatal:
// requests then fall back to serving variants from memory.
func setupThumbsDir(path string) bool {
	logging.Debug("  Setting up thumbs directory: %s", path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create thumbs directory: %v", err)
		logging.Warn("    Variants will be served from memory")
		return false
	}
	if err := testWriteAccess(path); err != nil {
		logging.Warn("    Thumbs directory is not writable: %v", err)
		logging.Warn("    Variants will be served from memory")
		return false
	}

	logging.Debug("    [OK] thumbs directory ready")
	return true
}

func describePolicy(p variant.Policy) string {
	switch p.Mode {
	case variant.PolicyReadOnly:
		return "read-only (variants are never persisted)"
	case variant.PolicyAlternateDirectory:
		return "alternate directory " + p.Dir
	default:
		return "beside images (.thumb, .preview)"
	}
}

// LogVariantEngineInit logs the selected image backend.
func LogVariantEngineInit(backend string, policy variant.Policy) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("VARIANT ENGINE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Backend:    %s", backend)
	logging.Info("  Thumbnail:  %dx%d", variant.ThumbnailWidth, variant.ThumbnailHeight)
	logging.Info("  Preview:    %dx%d", variant.PreviewWidth, variant.PreviewHeight)
	logging.Info("  JPEG:       quality %d", variant.JPEGQuality)
	logging.Info("  Cache:      %s", describePolicy(policy))
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}
	if first == "_" {
		return "variants"
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
               __
   ___ _ ___ _/ /____ __
  / _ '/ _ '/ / __/ // /
  \_, /\_,_/_/_/  \_, /
 /___/           /___/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

// checkDirectory requires path to exist and be a directory. Unlike a cache
// directory the root is never created.
func checkDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return errors.New("path exists but is not a directory")
	}

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			dirs := 0
			for _, e := range entries {
				if e.IsDir() {
					dirs++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", len(entries)-dirs, dirs)
		}
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
