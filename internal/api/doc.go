// Package api provides the JSON REST API server for GeoChain.
//
// # Architecture
//
// The server uses Go 1.22+ method routing with a layered middleware stack:
//
//	Recovery → RequestID → Logging → CORS → RateLimit → Routes
//
// Health probes (/health, /ready) bypass the middleware stack via a
// top-level mux, ensuring they remain fast and unauthenticated.
//
// # Endpoints
//
// Health probes (no middleware):
//   - GET /health — returns {"status":"ok"}
//   - GET /ready  — checks the database pool
//
// Query:
//   - POST /api/v1/query           — free-form question over the corpus
//   - POST /api/v1/country/summary — comprehensive country summary
//   - POST /api/v1/country/compare — two-country comparison
//
// Corpus:
//   - GET /api/v1/data/status — document counts per source
//
// # Error Handling
//
// All responses use an envelope format:
//
//	Success: {"data": <payload>}
//	Error:   {"error": {"code": "...", "message": "..."}}
//
// # Security
//
// The middleware stack enforces per-IP rate limiting (token bucket), CORS
// with an explicit origin allowlist, and standard security headers.
package api
