package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
)

// Money is rendered as a fixed two-decimal string so clients never see float
// rounding.
func money(d decimal.Decimal) string { return d.StringFixed(2) }

func optionalMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := money(d.Decimal)
	return &s
}

type manufacturerResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Logo  string `json:"logo"`
}

type categoryResponse struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Parent int64  `json:"parent"`
}

type parentCategoryResponse struct {
	ID         int64              `json:"id"`
	Title      string             `json:"title"`
	Slug       string             `json:"slug"`
	Icon       string             `json:"icon"`
	Categories []categoryResponse `json:"categories"`
}

type productResponse struct {
	ID            int64                 `json:"id"`
	Manufacturer  *manufacturerResponse `json:"manufacturer"`
	Category      *categoryResponse     `json:"category"`
	Title         string                `json:"title"`
	Slug          string                `json:"slug"`
	ProductCode   string                `json:"product_code"`
	Description   string                `json:"description"`
	Features      string                `json:"features"`
	Price         string                `json:"price"`
	SalePrice     *string               `json:"sale_price"`
	InStockCount  int                   `json:"in_stock_count"`
	ViewsCount    int                   `json:"views_count"`
	IsRecommended bool                  `json:"is_recommended"`
	IsActive      bool                  `json:"is_active"`
	IsSale        bool                  `json:"is_sale"`
	Gallery       []string              `json:"gallery"`
	IsInSaved     bool                  `json:"is_in_saved"`
	IsInCart      bool                  `json:"is_in_cart"`
	SoldCount     int                   `json:"sold_count"`
	CreatedAt     *time.Time            `json:"created_at,omitempty"`
}

type bannerResponse struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	SubTitle string           `json:"sub_title"`
	Image    string           `json:"image"`
	IsActive bool             `json:"is_active"`
	URL      string           `json:"url"`
	Product  *productResponse `json:"product"`
	Order    int              `json:"order"`
}

type cartResponse struct {
	ID          int64     `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type cartItemResponse struct {
	ID       int64 `json:"id"`
	Cart     int64 `json:"cart"`
	Product  int64 `json:"product"`
	Quantity int   `json:"quantity"`
}

type cartItemListResponse struct {
	ID       int64           `json:"id"`
	Cart     int64           `json:"cart"`
	Product  productResponse `json:"product"`
	Quantity int             `json:"quantity"`
}

type totalsResponse struct {
	Quantity     int    `json:"quantity"`
	TotalPrice   string `json:"total_price"`
	TotalSavings string `json:"total_savings"`
}

type orderResponse struct {
	ID     int64  `json:"id"`
	Cart   int64  `json:"cart"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Status string `json:"status"`
}

type visitorEntryResponse struct {
	ID          int64           `json:"id"`
	Product     productResponse `json:"product"`
	Fingerprint string          `json:"fingerprint,omitempty"`
}

type savedProductResponse struct {
	ID          int64  `json:"id"`
	Product     int64  `json:"product"`
	Fingerprint string `json:"fingerprint"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type searchEntryResponse struct {
	ID          int64  `json:"id"`
	Query       string `json:"query"`
	Fingerprint string `json:"fingerprint"`
}

type popularSearchResponse struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type popularSearchListResponse struct {
	PopularSearchesList []popularSearchResponse `json:"popular_searches_list"`
}

type socialResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon"`
}

type employeeResponse struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Image            string `json:"image"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	TelegramUsername string `json:"telegram_username"`
}

type aboutResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Cover       string `json:"cover"`
}

type contactResponse struct {
	Address     string             `json:"address"`
	Email       string             `json:"email"`
	Latitude    *float64           `json:"latitude"`
	Longitude   *float64           `json:"longitude"`
	Phones      []string           `json:"phones"`
	SocialMedia []socialResponse   `json:"social_media"`
	Employees   []employeeResponse `json:"employees"`
	About       *aboutResponse     `json:"about"`
}

type contactFormResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Question string `json:"question"`
}

func (h *Handler) manufacturerToResponse(m catalog.Manufacturer) manufacturerResponse {
	return manufacturerResponse{ID: m.ID, Title: m.Title, Logo: h.media(m.Logo)}
}

func categoryToResponse(c catalog.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Title: c.Title, Slug: c.Slug, Parent: c.ParentID}
}

func (h *Handler) productToResponse(p catalog.Product) productResponse {
	gallery := make([]string, len(p.Gallery))
	for i, img := range p.Gallery {
		gallery[i] = h.media(img)
	}
	category := categoryToResponse(p.Category)
	created := p.CreatedAt
	resp := productResponse{
		ID:            p.ID,
		Category:      &category,
		Title:         p.Title,
		Slug:          p.Slug,
		ProductCode:   p.ProductCode,
		Description:   p.Description,
		Features:      p.Features,
		Price:         money(p.Price),
		SalePrice:     optionalMoney(p.SalePrice),
		InStockCount:  p.InStockCount,
		ViewsCount:    p.ViewsCount,
		IsRecommended: p.IsRecommended,
		IsActive:      p.IsActive,
		IsSale:        p.IsSale,
		Gallery:       gallery,
		IsInSaved:     p.IsInSaved,
		IsInCart:      p.IsInCart,
		SoldCount:     p.SoldCount,
		CreatedAt:     &created,
	}
	if p.Manufacturer != nil {
		m := h.manufacturerToResponse(*p.Manufacturer)
		resp.Manufacturer = &m
	}
	return resp
}

// snapshotToResponse renders a cart line whose product is no longer listed
// from the price snapshot the cart holds.
func snapshotToResponse(it cart.Item) productResponse {
	return productResponse{
		ID:        it.ProductID,
		Title:     it.Product.Title,
		Price:     money(it.Product.Price),
		SalePrice: optionalMoney(it.Product.SalePrice),
		Gallery:   []string{},
	}
}

func cartToResponse(c cart.Cart) cartResponse {
	return cartResponse{ID: c.ID, Fingerprint: c.Fingerprint, Status: string(c.Status), CreatedAt: c.CreatedAt}
}

func cartItemToResponse(it cart.Item) cartItemResponse {
	return cartItemResponse{ID: it.ID, Cart: it.CartID, Product: it.ProductID, Quantity: it.Quantity}
}
