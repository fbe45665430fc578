package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dapursari/storefront/internal/metrics"
)

// stalePendingAge is how long a PENDING order survives before the cleanup
// sweep purges it.
const stalePendingAge = 24 * time.Hour

// registerSweepRoutes wires the externally triggered batch jobs. The group
// is already guarded by the cron shared secret.
func registerSweepRoutes(g *gin.RouterGroup, cfg HandlerConfig) {
	g.POST("/cleanup", func(c *gin.Context) {
		ctx := c.Request.Context()
		deleted, err := cfg.Orders.DeleteStalePending(ctx, time.Now().Add(-stalePendingAge))
		if err != nil {
			serverError(c, "cleanup sweep", err)
			return
		}
		for i := 0; i < deleted; i++ {
			cfg.Metrics.Count(ctx, metrics.MetricSweepOrderPurged, nil)
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	})

	g.POST("/email-retry", func(c *gin.Context) {
		attempted, delivered, err := cfg.Sender.RetryFailed(c.Request.Context())
		if err != nil {
			serverError(c, "email retry sweep", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"attempted": attempted, "delivered": delivered})
	})
}
