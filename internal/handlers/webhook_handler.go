package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dapursari/storefront/internal/metrics"
	"github.com/dapursari/storefront/internal/orders"
	"github.com/dapursari/storefront/internal/payment"
)

// gatewayNotification is the settlement webhook payload surface we consume.
type gatewayNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
}

// registerWebhookRoutes wires the payment-gateway notification endpoint.
// The signature is verified before anything is touched; a bad signature
// causes no order mutation.
func registerWebhookRoutes(g *gin.RouterGroup, cfg HandlerConfig) {
	g.POST("/payments/notify", func(c *gin.Context) {
		ctx := c.Request.Context()

		var n gatewayNotification
		if err := c.ShouldBindJSON(&n); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_notification"})
			return
		}

		if !payment.VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, cfg.Gateway.ServerKey(), n.SignatureKey) {
			log.Printf("webhook signature mismatch order=%s", n.OrderID)
			cfg.Metrics.Count(ctx, metrics.MetricWebhookRejected, nil)
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid_signature"})
			return
		}

		target := payment.MapTransactionStatus(n.TransactionStatus)
		if target == "" {
			// e.g. "pending"; acknowledged, nothing to apply
			c.JSON(http.StatusOK, gin.H{"order_id": n.OrderID, "applied": false})
			return
		}

		err := cfg.Orders.ApplyPaymentStatus(ctx, n.OrderID, target)
		var ite *orders.InvalidTransitionError
		switch {
		case errors.Is(err, orders.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		case errors.As(err, &ite):
			// a late notification for an order that already moved on; answer
			// 200 so the gateway stops redelivering
			log.Printf("webhook transition skipped order=%s: %v", n.OrderID, ite)
			c.JSON(http.StatusOK, gin.H{"order_id": n.OrderID, "applied": false})
			return
		case err != nil:
			serverError(c, "apply payment status", err)
			return
		}

		cfg.Metrics.Count(ctx, metrics.MetricOrderTransition, map[string]string{"To": target})
		c.JSON(http.StatusOK, gin.H{"order_id": n.OrderID, "applied": true, "status": target})
	})
}
