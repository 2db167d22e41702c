// Package server provides the read-only status HTTP server for pjsipwatch.
//
// This package is internal to pjsipwatch and handles all HTTP concerns:
//
//   - REST API: JSON endpoint at "/api/status" with the latest snapshot
//   - Server-Sent Events: one event per poll cycle at "/api/sse"
//   - Metrics: Prometheus exposition at "/metrics"
//   - Liveness: "/healthz"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
