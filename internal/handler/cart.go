package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
)

type createCartRequest struct {
	Fingerprint string `json:"fingerprint" binding:"max=250"`
}

// CreateCart serves POST /api/cart. The fingerprint comes from the header or
// the body.
func (h *Handler) CreateCart(c *gin.Context) {
	var req createCartRequest
	if c.Request.ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			fail(c, err)
			return
		}
	}
	created, err := h.carts.Create(c.Request.Context(), fingerprintOr(c, req.Fingerprint))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cartToResponse(*created))
}

// ListCarts serves GET /api/cart, newest first.
func (h *Handler) ListCarts(c *gin.Context) {
	carts, err := h.carts.List(c.Request.Context(), viewer(c).Fingerprint)
	if err != nil {
		fail(c, err)
		return
	}
	resp := make([]cartResponse, len(carts))
	for i, ct := range carts {
		resp[i] = cartToResponse(ct)
	}
	c.JSON(http.StatusOK, resp)
}

// CartTotalPrice serves GET /api/cart/total-price?cart_id=. Anonymous clients
// always get zero totals.
func (h *Handler) CartTotalPrice(c *gin.Context) {
	if viewer(c).Anonymous() {
		c.JSON(http.StatusOK, totalsToResponse(cart.ComputeTotals(nil)))
		return
	}
	cartID, err := queryID(c, "cart_id")
	if err != nil {
		fail(c, err)
		return
	}
	totals, err := h.carts.Totals(c.Request.Context(), cartID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, totalsToResponse(totals))
}

func totalsToResponse(t cart.Totals) totalsResponse {
	return totalsResponse{
		Quantity:     t.Quantity,
		TotalPrice:   money(t.TotalPrice),
		TotalSavings: money(t.TotalSavings),
	}
}

type addCartItemRequest struct {
	Cart     int64 `json:"cart"`
	Product  int64 `json:"product"`
	Quantity *int  `json:"quantity" binding:"omitempty,max=2147483647"`
}

// AddCartItem serves POST /api/cart-item. Quantity defaults to 1; adding a
// product already in the cart increments its line.
func (h *Handler) AddCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	it, err := h.carts.AddItem(c.Request.Context(), cart.AddItemRequest{
		CartID:    req.Cart,
		ProductID: req.Product,
		Quantity:  quantity,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cartItemToResponse(*it))
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"max=2147483647"`
}

// UpdateCartItem serves PUT /api/cart-item/:id.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req updateCartItemRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	it, err := h.carts.UpdateItemQuantity(c.Request.Context(), id, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartItemToResponse(*it))
}

// DeleteCartItem serves DELETE /api/cart-item/:id. Deleting a missing line
// succeeds.
func (h *Handler) DeleteCartItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.carts.RemoveItem(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCartItems serves GET /api/cart-item?cart_id= with full product read
// models for the viewer.
func (h *Handler) ListCartItems(c *gin.Context) {
	cartID, err := queryID(c, "cart_id")
	if err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	items, err := h.carts.Items(ctx, cartID)
	if err != nil {
		fail(c, err)
		return
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := h.catalog.GetProductsByIDs(ctx, ids, viewer(c))
	if err != nil {
		fail(c, err)
		return
	}
	byID := make(map[int64]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	resp := make([]cartItemListResponse, len(items))
	for i, it := range items {
		product := snapshotToResponse(it)
		if p, ok := byID[it.ProductID]; ok {
			product = h.productToResponse(p)
		}
		resp[i] = cartItemListResponse{ID: it.ID, Cart: it.CartID, Product: product, Quantity: it.Quantity}
	}
	c.JSON(http.StatusOK, resp)
}
