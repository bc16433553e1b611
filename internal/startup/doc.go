// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] parses command-line flags with pflag. Every flag defaults from
// an environment variable, so the server can be configured either way:
//
//   - --root-dir / GALRY_ROOT_DIR: album tree to serve (or first argument)
//   - --thumbs-dir / GALRY_THUMBS_DIR: alternate directory for cached variants
//   - --read-only / GALRY_READ_ONLY: never persist variants
//   - --zoom-shows-preview / GALRY_ZOOM_SHOWS_PREVIEW: client zoom hint
//   - --image-backend / GALRY_IMAGE_BACKEND: imaging (default) or vips
//   - --port / PORT: HTTP server port (default: 8080)
//   - --metrics-port / METRICS_PORT: Prometheus metrics port (default: 9090)
//   - --metrics-enabled / METRICS_ENABLED: serve metrics (default: true)
//   - --inventory-interval / GALRY_INVENTORY_INTERVAL: cache size metric refresh
//   - --log-static-files / LOG_STATIC_FILES (default: false)
//   - --log-health-checks / LOG_HEALTH_CHECKS (default: true)
//   - --log-level / GALRY_LOG_LEVEL, LOG_LEVEL
//
// [Config.Policy] turns the directory flags into a variant.Policy.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
