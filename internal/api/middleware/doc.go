// Package middleware provides the HTTP middleware stack of the flow gallery API.
//
// Middleware stack includes:
//   - RequestID: ULID request IDs, echoed in X-Request-ID
//   - AccessLog: one zap entry per request, leveled by status
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting with idle eviction
//
// Rate Limiting:
//   - Per-IP tracking; clients idle for IdleTTL are dropped
//   - Token bucket algorithm
//   - Configurable RPS and burst capacity
//   - Global rate limiting option
//   - Rejections carry Retry-After
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.AccessLog(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
