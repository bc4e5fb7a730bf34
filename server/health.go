package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/seqkit/observability"
	"github.com/kbukum/seqkit/version"
)

// Health reports the service and every checker. A checker that is down
// turns the answer into a 503.
func Health(service string, checkers ...observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.Check(c.Request.Context(), service, version.GetVersionInfo().Version, checkers...)

		status := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"health":    sh,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Version serves the build information.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.GetVersionInfo())
	}
}
