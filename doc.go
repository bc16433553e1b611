// Package main provides the galry server.
//
// galry serves a directory tree of photo albums over HTTP. Every image is
// available as the original, a thumbnail that fits 350x250 and a preview
// that fits 1920x1080. Scaled variants are generated on first request and
// cached as JPEG files in hidden .thumb and .preview directories beside the
// image, or under an alternate directory.
//
// # Application Lifecycle
//
//  1. Memory: sets GOMEMLIMIT from MEMORY_LIMIT when running in a container
//  2. Configuration: parses flags and environment, validates the root directory
//  3. Variant engine: selects the imaging or libvips backend and the cache policy
//  4. Metrics: registers observers and starts the cache inventory collector
//  5. HTTP: mounts routes and middleware and starts the main and metrics servers
//  6. Graceful shutdown on SIGINT and SIGTERM
//
// # HTTP Server
//
// The main server (default port 8080) exposes:
//
//	GET|HEAD /_/{img|thumb|preview}/{path}  image variants
//	GET      /api/album[/{path}]            album listing as JSON
//	GET      /health, /healthz, /livez, /readyz
//	GET      /version
//
// The metrics server (default port 9090) serves /metrics when enabled.
//
// # Configuration
//
// Every flag can also be set from the environment:
//
//   - --root-dir, GALRY_ROOT_DIR: album tree to serve (or first argument)
//   - --thumbs-dir, GALRY_THUMBS_DIR: alternate cache directory
//   - --read-only, GALRY_READ_ONLY: never write to disk, scale in memory
//   - --zoom-shows-preview, GALRY_ZOOM_SHOWS_PREVIEW: zoom opens previews
//   - --image-backend, GALRY_IMAGE_BACKEND: imaging (pure Go) or vips
//   - --port, PORT and --metrics-port, METRICS_PORT
//   - --inventory-interval, GALRY_INVENTORY_INTERVAL: cache size scan period
//   - --log-level, LOG_LEVEL: debug, info, warn or error
//
// # Graceful Shutdown
//
//  1. Stop the inventory collector
//  2. Shut down the main HTTP server (30s timeout)
//  3. Shut down the metrics server
//  4. Shut down libvips if it was started
//
// # Related Packages
//
//   - [galry/internal/variant]: variant resolution, generation and caching
//   - [galry/internal/handlers]: HTTP request handlers
//   - [galry/internal/middleware]: access logging, metrics and compression
//   - [galry/internal/startup]: configuration and startup logging
//   - [galry/cmd/galry-warm]: batch cache pre-generation
package main
