package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type searchRequest struct {
	Query       string `json:"query"`
	Fingerprint string `json:"fingerprint" binding:"max=250"`
}

// ListSearchHistory serves GET /api/search-history for the viewer.
func (h *Handler) ListSearchHistory(c *gin.Context) {
	entries, err := h.searches.History(c.Request.Context(), viewer(c).Fingerprint)
	if err != nil {
		fail(c, err)
		return
	}
	resp := make([]searchEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = searchEntryResponse{ID: e.ID, Query: e.Query, Fingerprint: e.Fingerprint}
	}
	c.JSON(http.StatusOK, resp)
}

// CreateSearchHistory serves POST /api/search-history.
func (h *Handler) CreateSearchHistory(c *gin.Context) {
	var req searchRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	e, err := h.searches.Record(c.Request.Context(), fingerprintOr(c, req.Fingerprint), req.Query)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, searchEntryResponse{ID: e.ID, Query: e.Query, Fingerprint: e.Fingerprint})
}

// DeleteSearchHistory serves DELETE /api/search-history/:id. Only the
// viewer's own entries are deleted; a missing entry is not an error.
func (h *Handler) DeleteSearchHistory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.searches.Delete(c.Request.Context(), id, viewer(c).Fingerprint); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PopularSearchHistory serves GET /api/popular-search-history.
func (h *Handler) PopularSearchHistory(c *gin.Context) {
	popular, err := h.searches.Popular(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	resp := popularSearchListResponse{PopularSearchesList: make([]popularSearchResponse, len(popular))}
	for i, p := range popular {
		resp.PopularSearchesList[i] = popularSearchResponse{Query: p.Query, Count: p.Count}
	}
	c.JSON(http.StatusOK, resp)
}
