package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/dapursari/storefront/internal/auth"
	awspkg "github.com/dapursari/storefront/internal/aws"
	"github.com/dapursari/storefront/internal/catalog"
	"github.com/dapursari/storefront/internal/metrics"
	"github.com/dapursari/storefront/internal/orders"
	"github.com/dapursari/storefront/internal/validation"
)

// registerAdminRoutes wires login plus the authenticated back-office:
// order management, product CRUD and the email log.
func registerAdminRoutes(g *gin.RouterGroup, cfg HandlerConfig, v *validatorv10.Validate) {
	g.POST("/login", loginHandler(cfg, v))

	authed := g.Group("", requireAdmin(cfg.Auth))

	authed.GET("/orders", func(c *gin.Context) {
		skip, take := pagination(c)
		list, total, err := cfg.Orders.List(c.Request.Context(), c.Query("status"), skip, take)
		if err != nil {
			serverError(c, "list orders", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list, "total": total})
	})

	authed.GET("/orders/:id", func(c *gin.Context) {
		o, err := cfg.Orders.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			serverError(c, "get order", err)
			return
		}
		if o == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order":               o,
			"allowed_transitions": orders.AllowedTransitions(o.Status),
		})
	})

	authed.POST("/orders/:id/status", transitionHandler(cfg, v))
	authed.POST("/orders/:id/finalize", finalizeHandler(cfg, v))
	authed.POST("/orders/:id/payment-link", paymentLinkHandler(cfg))

	authed.DELETE("/orders/:id", func(c *gin.Context) {
		if err := cfg.Orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
			serverError(c, "delete order", err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	registerProductAdminRoutes(authed, cfg, v)

	authed.GET("/emails", func(c *gin.Context) {
		skip, take := pagination(c)
		list, total, err := cfg.MailStore.List(c.Request.Context(), skip, take)
		if err != nil {
			serverError(c, "list email log", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"emails": list, "total": total})
	})
}

func loginHandler(cfg HandlerConfig, v *validatorv10.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.LoginRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		admin, sess, err := cfg.Auth.Login(ctx, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrAccountLocked) {
				cfg.Metrics.Count(ctx, metrics.MetricLoginLockout, nil)
			}
			if errors.Is(err, auth.ErrAccountLocked) || errors.Is(err, auth.ErrInvalidCredentials) {
				// one body for every auth failure; the caller must not be able
				// to tell wrong email, wrong password and lockout apart
				c.JSON(http.StatusUnauthorized, gin.H{
					"error": "invalid_credentials",
					"msg":   "email or password is incorrect",
				})
				return
			}
			serverError(c, "login", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": sess.Token,
			"name":  admin.Name,
			"email": admin.Email,
		})
	}
}

func transitionHandler(cfg HandlerConfig, v *validatorv10.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.TransitionRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		err := cfg.Orders.Transition(ctx, c.Param("id"), req.Status)
		var ite *orders.InvalidTransitionError
		switch {
		case errors.As(err, &ite):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid_transition",
				"from":  ite.From,
				"to":    ite.To,
			})
			return
		case errors.Is(err, orders.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		case err != nil:
			serverError(c, "transition order", err)
			return
		}

		cfg.Metrics.Count(ctx, metrics.MetricOrderTransition, map[string]string{"To": req.Status})
		c.JSON(http.StatusOK, gin.H{"order_id": c.Param("id"), "status": req.Status})
	}
}

func finalizeHandler(cfg HandlerConfig, v *validatorv10.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req validation.FinalizeRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		o, err := cfg.Orders.Finalize(c.Request.Context(), c.Param("id"), req.ShippingCost)
		switch {
		case errors.Is(err, orders.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		case errors.Is(err, orders.ErrNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "order_not_pending"})
			return
		case err != nil:
			serverError(c, "finalize order", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": o})
	}
}

// paymentLinkHandler creates the gateway transaction for a finalized PENDING
// order, stores the token, moves the order to AWAITING_PAYMENT and emails
// the customer their payment link. Finalize and this step are deliberately
// separate admin actions.
func paymentLinkHandler(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		orderID := c.Param("id")

		o, err := cfg.Orders.Get(ctx, orderID)
		if err != nil {
			serverError(c, "get order", err)
			return
		}
		if o == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		if o.Status != orders.StatusPending {
			c.JSON(http.StatusConflict, gin.H{"error": "order_not_pending"})
			return
		}
		if o.ShippingCost == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "order_not_finalized"})
			return
		}

		token, redirectURL, err := cfg.Gateway.CreateTransaction(o)
		if err != nil {
			serverError(c, "create gateway transaction", err)
			return
		}
		if err := cfg.Orders.AttachPaymentToken(ctx, orderID, token); err != nil {
			serverError(c, "attach payment token", err)
			return
		}
		if err := cfg.Orders.Transition(ctx, orderID, orders.StatusAwaitingPayment); err != nil {
			serverError(c, "transition to awaiting payment", err)
			return
		}
		cfg.Metrics.Count(ctx, metrics.MetricOrderTransition, map[string]string{"To": orders.StatusAwaitingPayment})

		job := awspkg.EmailJob{
			To:      o.CustomerEmail,
			Subject: fmt.Sprintf("Pembayaran pesanan %s", o.OrderID),
			Body: fmt.Sprintf(
				"Halo %s,\n\nTotal pesanan Anda Rp%d. Silakan selesaikan pembayaran melalui tautan berikut:\n%s\n\nTerima kasih.",
				o.CustomerName, o.Total, redirectURL,
			),
			OrderID: o.OrderID,
		}
		if err := cfg.Publisher.PublishEmailJob(ctx, job, map[string]string{"order_id": o.OrderID}); err != nil {
			// the order already moved forward; the payment link is still
			// returned so the admin can resend manually
			log.Printf("enqueue payment-link email order=%s: %v", o.OrderID, err)
		}

		c.JSON(http.StatusOK, gin.H{
			"order_id":     o.OrderID,
			"status":       orders.StatusAwaitingPayment,
			"token":        token,
			"redirect_url": redirectURL,
		})
	}
}

func registerProductAdminRoutes(g *gin.RouterGroup, cfg HandlerConfig, v *validatorv10.Validate) {
	g.POST("/products", func(c *gin.Context) {
		var req validation.ProductRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		p := &catalog.Product{
			ProductID: uuid.NewString(),
			Name:      req.Name,
			Price:     req.Price,
			Weight:    req.Weight,
		}
		if err := cfg.Catalog.Create(c.Request.Context(), p); err != nil {
			serverError(c, "create product", err)
			return
		}
		c.JSON(http.StatusCreated, p)
	})

	g.PUT("/products/:id", func(c *gin.Context) {
		var req validation.ProductRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		existing, err := cfg.Catalog.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			serverError(c, "get product", err)
			return
		}
		if existing == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
			return
		}
		existing.Name = req.Name
		existing.Price = req.Price
		existing.Weight = req.Weight
		if err := cfg.Catalog.Update(c.Request.Context(), existing); err != nil {
			serverError(c, "update product", err)
			return
		}
		c.JSON(http.StatusOK, existing)
	})

	g.DELETE("/products/:id", func(c *gin.Context) {
		if err := cfg.Catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
			serverError(c, "delete product", err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	g.POST("/products/:id/image", func(c *gin.Context) {
		ctx := c.Request.Context()

		p, err := cfg.Catalog.Get(ctx, c.Param("id"))
		if err != nil {
			serverError(c, "get product", err)
			return
		}
		if p == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
			return
		}

		file, header, err := c.Request.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_image_file"})
			return
		}
		defer file.Close()

		url, err := cfg.Uploader.UploadImage(ctx, file, header.Filename, header.Header.Get("Content-Type"))
		if err != nil {
			serverError(c, "upload image", err)
			return
		}
		p.ImageURL = url
		if err := cfg.Catalog.Update(ctx, p); err != nil {
			serverError(c, "update product image", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"image_url": url})
	})
}
