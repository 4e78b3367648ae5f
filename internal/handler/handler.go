// Package handler exposes the storefront services over HTTP.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xenking/storefront/internal/cache"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/identity"
	"github.com/xenking/storefront/internal/domain/order"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler translates HTTP requests into service calls and domain errors back
// into HTTP responses.
type Handler struct {
	products catalog.Repository
	carts    *cart.Service
	orders   *order.Service
	// idem deduplicates retried checkouts; nil disables idempotency handling.
	idem         *cache.IdempotencyStore
	imageBaseURL string
}

// New constructs a Handler with the required dependencies.
func New(
	cfg Config,
	products catalog.Repository,
	carts *cart.Service,
	orders *order.Service,
	idem *cache.IdempotencyStore,
) *Handler {
	return &Handler{
		products:     products,
		carts:        carts,
		orders:       orders,
		idem:         idem,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// NewRouter builds the gin engine with all storefront routes. Catalog reads
// are public; cart and order routes need an authenticated user; the admin
// group needs a staff or admin role.
func NewRouter(h *Handler, auth *Auth) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/categories", h.ListCategories)
	}

	user := api.Group("", auth.Require())
	{
		user.GET("/cart", h.GetCart)
		user.POST("/cart/items", h.AddCartItem)
		user.PUT("/cart/items/:id", h.UpdateCartItem)
		user.DELETE("/cart/items/:id", h.RemoveCartItem)
		user.DELETE("/cart", h.ClearCart)

		user.POST("/orders", h.Checkout)
		user.GET("/orders", h.ListOrders)
		user.GET("/orders/:id", h.GetOrder)
		user.POST("/orders/:id/cancel", h.CancelOrder)
	}

	admin := api.Group("/admin", auth.Require(identity.RoleStaff, identity.RoleAdmin))
	{
		admin.GET("/orders", h.ListAllOrders)
		admin.POST("/orders/:id/status", h.UpdateOrderStatus)
	}

	return r
}

func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" {
		return path
	}
	return h.imageBaseURL + "/" + path
}
