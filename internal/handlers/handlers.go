package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dapursari/storefront/internal/auth"
	"github.com/dapursari/storefront/internal/aws"
	"github.com/dapursari/storefront/internal/catalog"
	"github.com/dapursari/storefront/internal/mail"
	"github.com/dapursari/storefront/internal/metrics"
	"github.com/dapursari/storefront/internal/orders"
	"github.com/dapursari/storefront/internal/payment"
	"github.com/dapursari/storefront/internal/shipping"
	"github.com/dapursari/storefront/internal/storage"
	"github.com/dapursari/storefront/internal/validation"
)

// HandlerConfig groups dependencies for all route handlers.
type HandlerConfig struct {
	Orders    *orders.Store
	Catalog   *catalog.Store
	Auth      *auth.Service
	MailStore *mail.Store
	Sender    *mail.Sender
	Publisher *aws.Publisher
	Gateway   *payment.Gateway
	Shipping  *shipping.Client
	Uploader  *storage.Uploader
	Metrics   *metrics.Recorder

	ServiceFee int64
	CronSecret string
}

// RegisterRoutes wires the public storefront, the admin back-office, the
// payment webhook and the sweep endpoints onto the engine.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	api := r.Group("/api")
	registerStorefrontRoutes(api, cfg, v)
	registerWebhookRoutes(api, cfg)

	admin := api.Group("/admin")
	registerAdminRoutes(admin, cfg, v)

	sweeps := r.Group("/internal/sweeps", requireCronSecret(cfg.CronSecret))
	registerSweepRoutes(sweeps, cfg)
}
