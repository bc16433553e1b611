// Package logging provides a small leveled logger for the gallery server.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (cache probes, fallbacks)
//   - INFO: General operational messages
//   - WARN: Warning conditions (degraded cache, unreadable files)
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The level is read once from GALRY_LOG_LEVEL, falling back to LOG_LEVEL.
// DEBUG=1 forces debug output. SetLevel overrides both.
package logging
