// Package catalog holds the read side of the storefront: manufacturers,
// categories, products and banners curated by administrators.
package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/fault"
)

// ErrProductNotFound matches any product lookup miss.
var ErrProductNotFound = &fault.NotFoundError{Entity: "product"}

// Manufacturer is a product brand.
type Manufacturer struct {
	ID    int64
	Title string
	Logo  string
}

// ParentCategory groups child categories; it always carries an icon.
type ParentCategory struct {
	ID         int64
	Title      string
	Slug       string
	Icon       string
	Categories []Category
}

// Category is a leaf category a product belongs to.
type Category struct {
	ID       int64
	Title    string
	Slug     string
	ParentID int64
}

// Product is the catalog read model of a single product.
//
// IsInSaved, IsInCart are relative to the Viewer the product was loaded for and
// are false for anonymous reads.
type Product struct {
	ID            int64
	Manufacturer  *Manufacturer
	Category      Category
	Title         string
	ProductCode   string
	Slug          string
	Description   string
	Features      string
	Price         decimal.Decimal
	SalePrice     decimal.NullDecimal
	InStockCount  int
	ViewsCount    int
	IsRecommended bool
	IsActive      bool
	IsSale        bool
	Gallery       []string
	CreatedAt     time.Time

	IsInSaved bool
	IsInCart  bool
	SoldCount int
}

// Banner is a promotional slide on the storefront.
type Banner struct {
	ID       int64
	Title    string
	SubTitle string
	Image    string
	IsActive bool
	URL      string
	Product  *Product
	Position int
}

// Viewer identifies the anonymous client a read model is assembled for.
// The zero value is an anonymous viewer.
type Viewer struct {
	Fingerprint string
}

// Anonymous reports whether no fingerprint is attached.
func (v Viewer) Anonymous() bool { return v.Fingerprint == "" }

// Repository defines read operations for the catalog.
type Repository interface {
	ListProducts(ctx context.Context, f ProductFilter, v Viewer) ([]Product, error)
	GetProductBySlug(ctx context.Context, slug string, v Viewer) (*Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64, v Viewer) ([]Product, error)
	ListBanners(ctx context.Context, v Viewer) ([]Banner, error)
	ListManufacturers(ctx context.Context, f ManufacturerFilter) ([]Manufacturer, error)
	ListParentCategories(ctx context.Context, f CategoryFilter) ([]ParentCategory, error)
}
