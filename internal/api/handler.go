package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
	"storefront-service/internal/payment"
	"storefront-service/internal/session"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Catalog is the slice of the catalog client the handlers use
type Catalog interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListProductsByCategory(ctx context.Context, categoryID int64) ([]models.Product, error)
}

// PaymentConfigSource serves the processor's client-side configuration
type PaymentConfigSource interface {
	GetConfig(ctx context.Context) (*payment.ProcessorConfig, error)
}

// Handler contains HTTP handlers
type Handler struct {
	catalog    Catalog
	sessions   *session.Manager
	payConfig  PaymentConfigSource
	cookieName string
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog Catalog, sessions *session.Manager, payConfig PaymentConfigSource, cookieName string) *Handler {
	return &Handler{
		catalog:    catalog,
		sessions:   sessions,
		payConfig:  payConfig,
		cookieName: cookieName,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(h.sessionMiddleware())
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/categories", h.listCategories)
		v1.GET("/categories/:id/products", h.listProductsByCategory)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PATCH("/cart/items/:id", h.updateCartItem)
		v1.DELETE("/cart/items/:id", h.removeCartItem)
		v1.DELETE("/cart", h.clearCart)
		v1.POST("/cart/open", h.openCart)
		v1.POST("/cart/close", h.closeCart)

		v1.GET("/compare", h.getCompare)
		v1.POST("/compare/items", h.addCompareItem)
		v1.DELETE("/compare/items/:id", h.removeCompareItem)
		v1.DELETE("/compare", h.clearCompare)

		v1.GET("/payment/config", h.paymentConfig)
		v1.POST("/checkout", h.checkout)
	}
}

// sessionMiddleware binds the request to its shopper session, creating one
// when the cookie is absent or stale.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *session.Session

		if id, err := c.Cookie(h.cookieName); err == nil && id != "" {
			if found, ok := h.sessions.Lookup(c.Request.Context(), id); ok {
				sess = found
			}
		}

		if sess == nil {
			sess = h.sessions.Create()
			c.SetCookie(h.cookieName, sess.ID, 0, "/", "", false, true)
		}

		c.Set("session", sess)
		c.Next()
	}
}

func (h *Handler) session(c *gin.Context) *session.Session {
	return c.MustGet("session").(*session.Session)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to load products",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to load product",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to load categories",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) listProductsByCategory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	products, err := h.catalog.ListProductsByCategory(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to load products",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) getCart(c *gin.Context) {
	sess := h.session(c)
	c.JSON(http.StatusOK, gin.H{
		"items":       sess.Cart.Items(),
		"total_items": sess.Cart.TotalItems(),
		"total_price": sess.Cart.TotalPrice(),
		"is_open":     sess.Cart.IsOpen(),
	})
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to load product",
			"details": err.Error(),
		})
		return
	}

	// An omitted quantity means one unit, matching the storefront's add
	// button. Negative quantities fall through to the cart's no-op.
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}

	sess := h.session(c)
	sess.Cart.AddItem(*product, qty)
	util.CartItemsAddedTotal.Inc()
	h.sessions.Persist(c.Request.Context(), sess)

	c.JSON(http.StatusOK, gin.H{
		"total_items": sess.Cart.TotalItems(),
		"total_price": sess.Cart.TotalPrice(),
	})
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *Handler) updateCartItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sess := h.session(c)
	sess.Cart.UpdateQuantity(id, *req.Quantity)
	h.sessions.Persist(c.Request.Context(), sess)

	c.JSON(http.StatusOK, gin.H{
		"total_items": sess.Cart.TotalItems(),
		"total_price": sess.Cart.TotalPrice(),
	})
}

func (h *Handler) removeCartItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	sess := h.session(c)
	sess.Cart.RemoveItem(id)
	h.sessions.Persist(c.Request.Context(), sess)

	c.JSON(http.StatusOK, gin.H{
		"total_items": sess.Cart.TotalItems(),
		"total_price": sess.Cart.TotalPrice(),
	})
}

func (h *Handler) clearCart(c *gin.Context) {
	sess := h.session(c)
	sess.Cart.Clear()
	util.CartClearsTotal.WithLabelValues("manual").Inc()
	h.sessions.Persist(c.Request.Context(), sess)
	c.Status(http.StatusNoContent)
}

func (h *Handler) openCart(c *gin.Context) {
	sess := h.session(c)
	sess.Cart.Open()
	c.JSON(http.StatusOK, gin.H{"is_open": true})
}

func (h *Handler) closeCart(c *gin.Context) {
	sess := h.session(c)
	sess.Cart.Close()
	c.JSON(http.StatusOK, gin.H{"is_open": false})
}

func (h *Handler) getCompare(c *gin.Context) {
	sess := h.session(c)
	c.JSON(http.StatusOK, gin.H{
		"items":   sess.Compare.Items(),
		"is_open": sess.Compare.IsOpen(),
	})
}

type addCompareItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

func (h *Handler) addCompareItem(c *gin.Context) {
	var req addCompareItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to load product",
			"details": err.Error(),
		})
		return
	}

	sess := h.session(c)
	if !sess.Compare.Add(*product) {
		reason := "limit_reached"
		message := "Comparison is limited to 4 products"
		if sess.Compare.Contains(product.ID) {
			reason = "duplicate"
			message = "Product is already being compared"
		}
		util.CompareRejectedTotal.WithLabelValues(reason).Inc()
		c.JSON(http.StatusConflict, gin.H{"error": message})
		return
	}

	h.sessions.Persist(c.Request.Context(), sess)
	c.JSON(http.StatusOK, gin.H{"items": sess.Compare.Items()})
}

func (h *Handler) removeCompareItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	sess := h.session(c)
	sess.Compare.Remove(id)
	h.sessions.Persist(c.Request.Context(), sess)
	c.JSON(http.StatusOK, gin.H{"items": sess.Compare.Items()})
}

func (h *Handler) clearCompare(c *gin.Context) {
	sess := h.session(c)
	sess.Compare.Clear()
	h.sessions.Persist(c.Request.Context(), sess)
	c.Status(http.StatusNoContent)
}

func (h *Handler) paymentConfig(c *gin.Context) {
	cfg, err := h.payConfig.GetConfig(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to load payment configuration",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type checkoutRequest struct {
	OrderID         string `json:"order_id"`
	PaymentMethodID string `json:"payment_method_id"`
}

func (h *Handler) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.OrderID == "" {
		req.OrderID = "ORDER-" + uuid.New().String()[:8]
	}

	sess := h.session(c)
	result, err := sess.Flow.Submit(c.Request.Context(), req.OrderID, req.PaymentMethodID)
	if err != nil {
		if errors.Is(err, payment.ErrCheckoutInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": "A checkout is already in progress"})
			return
		}

		var checkoutErr *payment.Error
		if errors.As(err, &checkoutErr) {
			status := http.StatusPaymentRequired
			if checkoutErr.Stage == payment.StageValidation {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{
				"error": checkoutErr.Message,
				"stage": checkoutErr.Stage,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Checkout failed",
			"details": err.Error(),
		})
		return
	}

	h.sessions.Persist(c.Request.Context(), sess)
	c.JSON(http.StatusOK, result)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
