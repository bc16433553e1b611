// Package middleware provides HTTP middleware for galry.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics keyed by route template
//   - gzip compression for JSON album listings
package middleware
