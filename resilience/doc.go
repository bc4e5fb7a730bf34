// Package resilience guards the I/O edge of a pipeline: opening remote
// sources and serving sequences over HTTP. Operators in package seq never use
// it; a fault inside an enumeration is handled with seq.Catch instead.
//
//   - Retry and Do retry a source's open step with exponential backoff
//   - CircuitBreaker refuses open attempts after repeated failures
//   - Bulkhead caps concurrent enumerations of a shared resource
//   - RateLimiter limits how often enumerations may start
//
// Refusals are reported as errors.ErrCodeUnavailable, which Retryable treats
// as final:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("orders"))
//	open := resilience.Guard(cb, dial)
//	resp, err := resilience.Retry(ctx, resilience.DefaultRetryConfig("orders"), open)
package resilience
