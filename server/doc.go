// Package server runs the HTTP surface of a seqkit binary: a gin engine
// behind an h2c handler, so NDJSON streams can be served over HTTP/2 without
// TLS.
//
// Middleware:
//
//   - Recovery: panic recovery answering with an INTERNAL_ERROR body
//   - RequestID: X-Request-Id propagation, stored under "request_id"
//   - RequestLogger: one log line per request, health probes skipped
//   - RateLimit: token bucket from package resilience
//   - Bulkhead: caps concurrent requests on a route group
//
// Health serves /healthz from any observability.HealthChecker.
package server
