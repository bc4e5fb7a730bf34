package main

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/ndjson"
	"github.com/kbukum/seqkit/resilience"
	"github.com/kbukum/seqkit/seq"
	"github.com/kbukum/seqkit/server"
	"github.com/kbukum/seqkit/sse"
)

// registerRoutes mounts the health probe and the reports, as NDJSON or as
// an event stream. Reports share one rate limiter and one bulkhead.
func registerRoutes(e *gin.Engine, r *reports, cfg *Config) {
	e.GET("/healthz", server.Health(cfg.Name, r.store))
	e.GET("/version", server.Version())

	limiter := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Name: "reports", Rate: cfg.Limits.Rate, Burst: cfg.Limits.Burst,
	})
	bulkhead := resilience.NewBulkhead(resilience.BulkheadConfig{
		Name: "reports", MaxConcurrent: cfg.Limits.MaxConcurrent,
	})
	opts := ndjson.HandlerOptions{Service: cfg.Name, Metrics: r.metrics}

	g := e.Group("/report", server.RateLimit(limiter), server.Bulkhead(bulkhead))
	g.GET("/orders", ndjson.HandlerFunc(func(c *gin.Context) (seq.Sequence[OrderLine], error) {
		return limited(c, r.orderLines(c.Query("city")))
	}, opts))
	g.GET("/customers", ndjson.HandlerFunc(func(c *gin.Context) (seq.Sequence[CustomerSummary], error) {
		return limited(c, r.customerSummaries())
	}, opts))
	g.GET("/status", ndjson.Handler(r.statusCounts(), opts))
	g.GET("/orders/events", sse.HandlerFunc(func(c *gin.Context) (seq.Sequence[OrderLine], error) {
		return limited(c, r.orderLines(c.Query("city")))
	}, sse.HandlerOptions{Service: cfg.Name, Metrics: r.metrics}))
	g.GET("/cities", ndjson.Handler(r.cities(), opts))

	// raw feed, in the format importOrders reads
	e.GET("/feed/orders", server.Bulkhead(bulkhead), ndjson.Handler(r.orders(), opts))
}

// limited applies the optional ?offset= and ?limit= query parameters.
func limited[T any](c *gin.Context, s seq.Sequence[T]) (seq.Sequence[T], error) {
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errors.InvalidArgument("offset", "must be a non-negative integer")
		}
		s = seq.Skip(s, n)
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errors.InvalidArgument("limit", "must be a non-negative integer")
		}
		s = seq.Take(s, n)
	}
	return s, nil
}
