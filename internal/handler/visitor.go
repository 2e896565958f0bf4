package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/storefront/internal/domain/visitor"
)

// ListLastSeen serves GET /api/last-seen-products.
func (h *Handler) ListLastSeen(c *gin.Context) {
	entries, err := h.visitors.LastSeen(c.Request.Context(), viewer(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.entriesToResponse(entries, false))
}

// ListSaved serves GET /api/saved-products.
func (h *Handler) ListSaved(c *gin.Context) {
	entries, err := h.visitors.Saved(c.Request.Context(), viewer(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.entriesToResponse(entries, true))
}

func (h *Handler) entriesToResponse(entries []visitor.Entry, withFingerprint bool) []visitorEntryResponse {
	resp := make([]visitorEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = visitorEntryResponse{ID: e.ID, Product: h.productToResponse(e.Product)}
		if withFingerprint {
			resp[i].Fingerprint = e.Fingerprint
		}
	}
	return resp
}

type saveProductRequest struct {
	Product     int64  `json:"product"`
	Fingerprint string `json:"fingerprint" binding:"max=250"`
}

// SaveProduct serves POST /api/saved-products. Saving twice returns the
// existing entry.
func (h *Handler) SaveProduct(c *gin.Context) {
	var req saveProductRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	e, err := h.visitors.Save(c.Request.Context(), req.Product, fingerprintOr(c, req.Fingerprint))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, savedProductResponse{ID: e.ID, Product: e.ProductID, Fingerprint: e.Fingerprint})
}

// UnsaveProduct serves DELETE /api/saved-products/:product_id.
func (h *Handler) UnsaveProduct(c *gin.Context) {
	productID, err := pathID(c, "product_id")
	if err != nil {
		fail(c, err)
		return
	}
	deleted, err := h.visitors.Unsave(c.Request.Context(), productID, viewer(c).Fingerprint)
	if err != nil {
		fail(c, err)
		return
	}
	status := "deleted"
	if !deleted {
		status = "not found"
	}
	c.JSON(http.StatusOK, statusResponse{Status: status})
}
