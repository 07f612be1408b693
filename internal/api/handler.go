package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Mailer sends contact-form messages.
type Mailer interface {
	Send(ctx context.Context, msg *models.ContactMessage) error
}

// Handler contains HTTP handlers
type Handler struct {
	catalog    *catalog.Catalog
	redis      *redisclient.Client
	identities service.IdentityStore
	shop       *service.ShopService
	checkout   *service.CheckoutService
	mailer     Mailer
	sessionTTL time.Duration
	maxQty     int

	mu      sync.Mutex
	carts   map[string]*cart.Store
	filters map[string]*catalog.FilterStore
}

// NewHandler creates a new HTTP handler
func NewHandler(
	cat *catalog.Catalog,
	redis *redisclient.Client,
	identities service.IdentityStore,
	shop *service.ShopService,
	checkout *service.CheckoutService,
	mailer Mailer,
	sessionTTL time.Duration,
	maxQty int,
) *Handler {
	return &Handler{
		catalog:    cat,
		redis:      redis,
		identities: identities,
		shop:       shop,
		checkout:   checkout,
		mailer:     mailer,
		sessionTTL: sessionTTL,
		maxQty:     maxQty,
		carts:      make(map[string]*cart.Store),
		filters:    make(map[string]*catalog.FilterStore),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
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

		v1.GET("/filters", h.getFilters)
		v1.PATCH("/filters", h.setFilters)
		v1.DELETE("/filters", h.resetFilters)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PUT("/cart/items/:productId", h.updateCartItem)
		v1.DELETE("/cart/items/:productId", h.removeCartItem)
		v1.DELETE("/cart", h.clearCart)

		v1.POST("/contact", h.contact)

		v1.POST("/auth/signup", h.signUp)
		v1.POST("/auth/signin", h.signIn)

		authed := v1.Group("")
		authed.Use(h.authMiddleware())
		{
			authed.POST("/auth/signout", h.signOut)
			authed.PUT("/auth/password", h.updatePassword)
			authed.GET("/profile", h.getProfile)
			authed.PATCH("/profile", h.updateProfile)
			authed.DELETE("/account", h.deleteAccount)

			authed.POST("/checkout", h.submitCheckout)

			authed.GET("/orders", h.listOrders)

			authed.GET("/addresses", h.listAddresses)
			authed.POST("/addresses", h.addAddress)
			authed.PUT("/addresses/:id", h.updateAddress)
			authed.DELETE("/addresses/:id", h.deleteAddress)

			authed.GET("/payment-methods", h.listPaymentMethods)
			authed.POST("/payment-methods", h.addPaymentMethod)
			authed.PUT("/payment-methods/:id", h.updatePaymentMethod)
			authed.DELETE("/payment-methods/:id", h.deletePaymentMethod)
		}
	}
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

// sessionMiddleware assigns a session id to anonymous clients. The id keys
// the cart snapshot and the filter state; it is echoed back so the client
// can carry it across reloads.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("X-Session-ID")
		if sessionID == "" {
			sessionID = uuid.New().String()
		}
		c.Set("session_id", sessionID)
		c.Header("X-Session-ID", sessionID)
		c.Next()
	}
}

// authMiddleware resolves the bearer token to a user id via the session
// store; requests without a valid session are rejected.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(token) > len(prefix) && token[:len(prefix)] == prefix {
			token = token[len(prefix):]
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		userID, err := h.redis.GetSession(c.Request.Context(), token)
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		c.Set("user_id", userID)
		c.Set("session_token", token)
		c.Next()
	}
}

func (h *Handler) sessionID(c *gin.Context) string {
	return c.GetString("session_id")
}

// cartFor returns the session's cart store, restoring it from the persisted
// snapshot on first use.
func (h *Handler) cartFor(c *gin.Context) *cart.Store {
	sessionID := h.sessionID(c)

	h.mu.Lock()
	cs, ok := h.carts[sessionID]
	if !ok {
		cs = cart.NewStore(sessionID, h.redis)
		h.carts[sessionID] = cs
	}
	h.mu.Unlock()

	if !ok {
		if err := cs.Restore(c.Request.Context()); err != nil {
			util.GetLogger().Warn("Failed to restore cart snapshot")
		}
	}
	return cs
}

func (h *Handler) filtersFor(c *gin.Context) *catalog.FilterStore {
	sessionID := h.sessionID(c)

	h.mu.Lock()
	defer h.mu.Unlock()
	fs, ok := h.filters[sessionID]
	if !ok {
		fs = catalog.NewFilterStore()
		h.filters[sessionID] = fs
	}
	return fs
}

// listProducts returns the catalog filtered and sorted by the session's
// current filter state.
func (h *Handler) listProducts(c *gin.Context) {
	fs := h.filtersFor(c)
	products := catalog.Apply(h.catalog.Products(), fs.Filters())
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"filters":  fs.Filters(),
	})
}

// getProduct handles product detail lookup
func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.catalog.GetProduct(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// listCategories returns the category facet list
func (h *Handler) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.catalog.Categories()})
}

func (h *Handler) getFilters(c *gin.Context) {
	c.JSON(http.StatusOK, h.filtersFor(c).Filters())
}

func (h *Handler) setFilters(c *gin.Context) {
	var patch catalog.FiltersPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	fs := h.filtersFor(c)
	fs.SetFilters(patch)
	c.JSON(http.StatusOK, fs.Filters())
}

func (h *Handler) resetFilters(c *gin.Context) {
	fs := h.filtersFor(c)
	fs.ResetFilters()
	c.JSON(http.StatusOK, fs.Filters())
}

// getCart returns the cart contents with fresh display totals.
func (h *Handler) getCart(c *gin.Context) {
	cs := h.cartFor(c)
	items := cs.Items()

	totals, err := h.checkout.Totals(items)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute totals",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  items,
		"totals": totals,
	})
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

// addCartItem adds a product to the cart. The per-product quantity cap
// lives here, not in the cart store.
func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	if _, err := h.catalog.GetProduct(req.ProductID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	cs := h.cartFor(c)

	current := 0
	for _, item := range cs.Items() {
		if item.ProductID == req.ProductID {
			current = item.Quantity
			break
		}
	}
	if current+req.Quantity > h.maxQty {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Maximum quantity is " + strconv.Itoa(h.maxQty) + " items",
		})
		return
	}

	for i := 0; i < req.Quantity; i++ {
		cs.AddItem(c.Request.Context(), req.ProductID)
	}

	c.JSON(http.StatusOK, gin.H{"items": cs.Items()})
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateCartItem(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
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

	if req.Quantity > h.maxQty {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Maximum quantity is " + strconv.Itoa(h.maxQty) + " items",
		})
		return
	}

	cs := h.cartFor(c)
	cs.UpdateQuantity(c.Request.Context(), productID, req.Quantity)
	c.JSON(http.StatusOK, gin.H{"items": cs.Items()})
}

func (h *Handler) removeCartItem(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	cs := h.cartFor(c)
	cs.RemoveItem(c.Request.Context(), productID)
	c.JSON(http.StatusOK, gin.H{"items": cs.Items()})
}

func (h *Handler) clearCart(c *gin.Context) {
	cs := h.cartFor(c)
	cs.Clear(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"items": cs.Items()})
}

// submitCheckout runs the checkout flow for the session's cart.
func (h *Handler) submitCheckout(c *gin.Context) {
	userID := c.GetString("user_id")
	cs := h.cartFor(c)

	result, err := h.checkout.Submit(c.Request.Context(), h.sessionID(c), userID, cs)
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case service.ErrEmptyCart:
			status = http.StatusBadRequest
		case service.ErrUnauthenticated:
			status = http.StatusUnauthorized
		case service.ErrSubmitInProgress:
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error":   "Checkout failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// contact validates and forwards a contact-form submission.
func (h *Handler) contact(c *gin.Context) {
	var msg models.ContactMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing required fields",
			"details": err.Error(),
		})
		return
	}

	if err := h.mailer.Send(c.Request.Context(), &msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"details": "Failed to send message. Please try again later.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email sent successfully"})
}

// corsMiddleware answers preflight requests unconditionally with permissive
// headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "authorization, x-session-id, content-type")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
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
