// Package handlers provides the HTTP handlers for the gallery API.
//
// It includes handlers for:
//   - Image variants: originals, thumbnails and previews (/_/{what}/{path})
//   - Album listings as JSON (/api/album/{path})
//   - Health, liveness and readiness probes
//   - Version information and the Prometheus metrics endpoint
package handlers
