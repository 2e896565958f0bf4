package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/fault"
)

// ListProducts serves GET /api/products.
func (h *Handler) ListProducts(c *gin.Context) {
	f, err := productFilter(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := f.Normalize(); err != nil {
		fail(c, err)
		return
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), f, viewer(c))
	if err != nil {
		fail(c, err)
		return
	}
	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = h.productToResponse(p)
	}
	c.JSON(http.StatusOK, resp)
}

func productFilter(c *gin.Context) (catalog.ProductFilter, error) {
	f := catalog.ProductFilter{
		Search:   c.Query("search"),
		Ordering: catalog.Ordering(c.Query("ordering")),
	}
	var err error
	if f.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return f, err
	}
	if f.ManufacturerIDs, err = catalog.ParseIDs("manufacturer", c.Query("manufacturer")); err != nil {
		return f, err
	}
	if f.CategoryIDs, err = catalog.ParseIDs("category", c.Query("category")); err != nil {
		return f, err
	}
	if f.ParentCategoryIDs, err = catalog.ParseIDs("parent_category", c.Query("parent_category")); err != nil {
		return f, err
	}
	if f.IsActive, err = queryBool(c, "is_active"); err != nil {
		return f, err
	}
	if f.IsRecommended, err = queryBool(c, "is_recommended"); err != nil {
		return f, err
	}
	if f.IsSale, err = queryBool(c, "is_sale"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func queryDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fault.Validation(name, "must be a decimal number")
	}
	return &d, nil
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fault.Validation(name, "must be true or false")
	}
	return &b, nil
}

func queryOptionalID(c *gin.Context, name string) (*int64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fault.Validation(name, "must be an integer")
	}
	return &id, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fault.Validation(name, "must be an integer")
	}
	return n, nil
}

// GetProduct serves GET /api/products/:slug. Identified viewers get the visit
// recorded.
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.visitors.ProductDetail(c.Request.Context(), c.Param("slug"), viewer(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.productToResponse(*p))
}

// ListBanners serves GET /api/banners.
func (h *Handler) ListBanners(c *gin.Context) {
	banners, err := h.catalog.ListBanners(c.Request.Context(), viewer(c))
	if err != nil {
		fail(c, err)
		return
	}
	resp := make([]bannerResponse, len(banners))
	for i, b := range banners {
		resp[i] = bannerResponse{
			ID:       b.ID,
			Title:    b.Title,
			SubTitle: b.SubTitle,
			Image:    h.media(b.Image),
			IsActive: b.IsActive,
			URL:      b.URL,
			Order:    b.Position,
		}
		if b.Product != nil {
			p := h.productToResponse(*b.Product)
			resp[i].Product = &p
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ListManufacturers serves GET /api/manufacturers.
func (h *Handler) ListManufacturers(c *gin.Context) {
	var (
		f   catalog.ManufacturerFilter
		err error
	)
	if f.ParentCategoryIDs, err = catalog.ParseIDs("parent_category", c.Query("parent_category")); err != nil {
		fail(c, err)
		return
	}
	if f.ChildCategoryIDs, err = catalog.ParseIDs("child_category", c.Query("child_category")); err != nil {
		fail(c, err)
		return
	}

	manufacturers, err := h.catalog.ListManufacturers(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	resp := make([]manufacturerResponse, len(manufacturers))
	for i, m := range manufacturers {
		resp[i] = h.manufacturerToResponse(m)
	}
	c.JSON(http.StatusOK, resp)
}

// ListCategories serves GET /api/categories.
func (h *Handler) ListCategories(c *gin.Context) {
	f := catalog.CategoryFilter{
		Slug:         c.Query("slug"),
		CategorySlug: c.Query("category_slug"),
	}
	var err error
	if f.ID, err = queryOptionalID(c, "id"); err != nil {
		fail(c, err)
		return
	}
	if f.CategoryID, err = queryOptionalID(c, "category_id"); err != nil {
		fail(c, err)
		return
	}

	parents, err := h.catalog.ListParentCategories(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	resp := make([]parentCategoryResponse, len(parents))
	for i, pc := range parents {
		children := make([]categoryResponse, len(pc.Categories))
		for j, ch := range pc.Categories {
			children[j] = categoryToResponse(ch)
		}
		resp[i] = parentCategoryResponse{
			ID:         pc.ID,
			Title:      pc.Title,
			Slug:       pc.Slug,
			Icon:       h.media(pc.Icon),
			Categories: children,
		}
	}
	c.JSON(http.StatusOK, resp)
}
