// Package handler exposes the storefront REST API on gin.
package handler

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/contact"
	"github.com/xenking/storefront/internal/domain/fault"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/search"
	"github.com/xenking/storefront/internal/domain/visitor"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// MediaBaseURL is prepended to relative media paths (images, logos,
	// icons). When empty, paths are returned as stored.
	MediaBaseURL string
}

// Handler serves the /api routes, delegating to the domain services.
type Handler struct {
	catalog  catalog.Repository
	visitors *visitor.Service
	carts    *cart.Service
	orders   *order.Service
	searches *search.Service
	contacts *contact.Service

	mediaBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products catalog.Repository,
	visitors *visitor.Service,
	carts *cart.Service,
	orders *order.Service,
	searches *search.Service,
	contacts *contact.Service,
) *Handler {
	return &Handler{
		catalog:      products,
		visitors:     visitors,
		carts:        carts,
		orders:       orders,
		searches:     searches,
		contacts:     contacts,
		mediaBaseURL: strings.TrimRight(cfg.MediaBaseURL, "/"),
	}
}

// Register mounts the API routes under /api.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")

	api.GET("/products", h.ListProducts)
	api.GET("/products/:slug", h.GetProduct)
	api.GET("/banners", h.ListBanners)
	api.GET("/manufacturers", h.ListManufacturers)
	api.GET("/categories", h.ListCategories)

	api.GET("/last-seen-products", h.ListLastSeen)
	api.GET("/saved-products", h.ListSaved)
	api.POST("/saved-products", h.SaveProduct)
	api.DELETE("/saved-products/:product_id", h.UnsaveProduct)

	api.POST("/cart", h.CreateCart)
	api.GET("/cart", h.ListCarts)
	api.GET("/cart/total-price", h.CartTotalPrice)
	api.POST("/cart-item", h.AddCartItem)
	api.GET("/cart-item", h.ListCartItems)
	api.PUT("/cart-item/:id", h.UpdateCartItem)
	api.DELETE("/cart-item/:id", h.DeleteCartItem)

	api.POST("/order", h.PlaceOrder)

	api.GET("/search-history", h.ListSearchHistory)
	api.POST("/search-history", h.CreateSearchHistory)
	api.DELETE("/search-history/:id", h.DeleteSearchHistory)
	api.GET("/popular-search-history", h.PopularSearchHistory)

	api.GET("/contact", h.GetContact)
	api.POST("/contact-form", h.SubmitContactForm)
}

// viewer returns the client identity carried by the Fingerprint header.
func viewer(c *gin.Context) catalog.Viewer {
	return catalog.Viewer{Fingerprint: strings.TrimSpace(c.GetHeader(httpmiddleware.HeaderFingerprint))}
}

// fingerprintOr prefers the header and falls back to a body value.
func fingerprintOr(c *gin.Context, body string) string {
	if v := viewer(c); !v.Anonymous() {
		return v.Fingerprint
	}
	return strings.TrimSpace(body)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fault.Validation(name, "must be a positive integer")
	}
	return id, nil
}

func queryID(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fault.Validation(name, "is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fault.Validation(name, "must be a positive integer")
	}
	return id, nil
}

// bind decodes the JSON body into dst and applies its binding tags.
func bind(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		return fieldError(fields[0])
	}
	return fault.Validation("body", "invalid JSON: "+err.Error())
}

func fieldError(fe validator.FieldError) error {
	field := strings.ToLower(fe.Field())
	switch {
	case fe.Tag() == "max" && fe.Kind() == reflect.String:
		return fault.Validation(field, "must be at most "+fe.Param()+" characters")
	case fe.Tag() == "max":
		return fault.Validation(field, "must be at most "+fe.Param())
	}
	return fault.Validation(field, "failed "+fe.Tag()+" check")
}

// media resolves a stored media path against the configured base URL.
func (h *Handler) media(path string) string {
	if path == "" || h.mediaBaseURL == "" ||
		strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return h.mediaBaseURL + "/" + strings.TrimLeft(path, "/")
}
