package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/dapursari/storefront/internal/catalog"
	"github.com/dapursari/storefront/internal/metrics"
	"github.com/dapursari/storefront/internal/orders"
	"github.com/dapursari/storefront/internal/validation"
)

// registerStorefrontRoutes wires the public catalog, checkout and shipping
// estimate endpoints.
func registerStorefrontRoutes(g *gin.RouterGroup, cfg HandlerConfig, v *validatorv10.Validate) {
	g.GET("/products", func(c *gin.Context) {
		skip, take := pagination(c)
		products, total, err := cfg.Catalog.List(c.Request.Context(), skip, take)
		if err != nil {
			serverError(c, "list products", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products, "total": total})
	})

	g.GET("/products/:id", func(c *gin.Context) {
		p, err := cfg.Catalog.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			serverError(c, "get product", err)
			return
		}
		if p == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
			return
		}
		c.JSON(http.StatusOK, p)
	})

	g.POST("/orders", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CheckoutRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		items, subtotal, grams, ok := snapshotItems(c, cfg, req.Items)
		if !ok {
			return
		}

		order := &orders.Order{
			OrderID:       uuid.NewString(),
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
			Address:       req.Address,
			DestinationID: req.DestinationID,
			Subtotal:      subtotal,
			ServiceFee:    cfg.ServiceFee,
			// shipping cost stays unset until an admin finalizes; the total
			// is a placeholder without it
			Total:  subtotal + cfg.ServiceFee,
			Status: orders.StatusPending,
			Items:  items,
		}
		if err := cfg.Orders.Create(ctx, order); err != nil {
			serverError(c, "create order", err)
			return
		}
		cfg.Metrics.Count(ctx, metrics.MetricOrderCreated, nil)

		estimate := cfg.Shipping.EstimateCost(ctx, req.DestinationID, grams)
		c.JSON(http.StatusCreated, gin.H{
			"order":              order,
			"estimated_shipping": estimate,
		})
	})

	g.GET("/orders/:id", func(c *gin.Context) {
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

	g.POST("/shipping/estimate", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.EstimateRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		_, _, grams, ok := snapshotItems(c, cfg, req.Items)
		if !ok {
			return
		}
		cost := cfg.Shipping.EstimateCost(ctx, req.DestinationID, grams)
		c.JSON(http.StatusOK, gin.H{"shipping_cost": cost})
	})
}

// snapshotItems resolves checkout lines against the catalog, returning the
// snapshotted order items, their subtotal and total weight. Writes a 400 and
// returns ok=false when a product is unknown.
func snapshotItems(c *gin.Context, cfg HandlerConfig, lines []validation.CheckoutItem) (items []orders.Item, subtotal int64, grams int, ok bool) {
	ctx := c.Request.Context()
	for _, line := range lines {
		p, err := cfg.Catalog.Get(ctx, line.ProductID)
		if err != nil {
			serverError(c, "load product", err)
			return nil, 0, 0, false
		}
		if p == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "unknown_product",
				"product_id": line.ProductID,
			})
			return nil, 0, 0, false
		}
		items = append(items, orders.Item{
			ProductID: p.ProductID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  line.Quantity,
		})
		subtotal += p.Price * int64(line.Quantity)
		grams += p.Grams() * line.Quantity
	}
	if grams < catalog.DefaultGrams {
		// courier bills a 1000g minimum anyway; shipping client floors too
		grams = catalog.DefaultGrams
	}
	return items, subtotal, grams, true
}

func pagination(c *gin.Context) (skip, take int) {
	page := intQuery(c, "page", 1)
	perPage := intQuery(c, "per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return (page - 1) * perPage, perPage
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// serverError logs the detailed cause and degrades the client response to a
// generic message; upstream error text never reaches the caller.
func serverError(c *gin.Context, op string, err error) {
	log.Printf("%s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}
