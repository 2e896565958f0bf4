package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/storefront/internal/domain/order"
)

type placeOrderRequest struct {
	Cart  int64  `json:"cart"`
	Name  string `json:"name" binding:"max=250"`
	Phone string `json:"phone" binding:"max=250"`
}

// PlaceOrder serves POST /api/order. An empty cart is a 400 and an already
// placed cart a 409.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	o, err := h.orders.PlaceOrder(c.Request.Context(), order.PlaceOrderRequest{
		CartID: req.Cart,
		Name:   req.Name,
		Phone:  req.Phone,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderResponse{
		ID:     o.ID,
		Cart:   o.CartID,
		Name:   o.Name,
		Phone:  o.Phone,
		Status: string(o.Status),
	})
}
