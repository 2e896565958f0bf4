package catalog

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/fault"
)

// Ordering is a product list sort key. A leading "-" means descending.
type Ordering string

// Supported orderings.
const (
	OrderPriceAsc      Ordering = "price"
	OrderPriceDesc     Ordering = "-price"
	OrderViewsAsc      Ordering = "views_count"
	OrderViewsDesc     Ordering = "-views_count"
	OrderCreatedAtAsc  Ordering = "created_at"
	OrderCreatedAtDesc Ordering = "-created_at"
	DefaultOrdering             = OrderCreatedAtDesc
	DefaultLimit                = 20
	MaxLimit                    = 100
)

// ProductFilter narrows and orders a product listing. Nil pointers and empty
// slices mean "no constraint". IsActive defaults to true when unset.
type ProductFilter struct {
	MinPrice          *decimal.Decimal
	MaxPrice          *decimal.Decimal
	ManufacturerIDs   []int64
	CategoryIDs       []int64
	ParentCategoryIDs []int64
	IsActive          *bool
	IsRecommended     *bool
	IsSale            *bool
	Search            string
	Ordering          Ordering
	Limit             int
	Offset            int
}

// ManufacturerFilter selects manufacturers that have products in the given
// parent or child categories.
type ManufacturerFilter struct {
	ParentCategoryIDs []int64
	ChildCategoryIDs  []int64
}

// CategoryFilter selects parent categories by their own or their children's
// identity.
type CategoryFilter struct {
	ID           *int64
	Slug         string
	CategoryID   *int64
	CategorySlug string
}

// Normalize validates the filter and fills defaults.
func (f *ProductFilter) Normalize() error {
	switch f.Ordering {
	case "":
		f.Ordering = DefaultOrdering
	case OrderPriceAsc, OrderPriceDesc, OrderViewsAsc, OrderViewsDesc, OrderCreatedAtAsc, OrderCreatedAtDesc:
	default:
		return fault.Validation("ordering", "unsupported value "+strconv.Quote(string(f.Ordering)))
	}
	if f.IsActive == nil {
		active := true
		f.IsActive = &active
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return fault.Validation("min_price", "must not exceed max_price")
	}
	switch {
	case f.Limit < 0:
		return fault.Validation("limit", "must not be negative")
	case f.Limit == 0:
		f.Limit = DefaultLimit
	case f.Limit > MaxLimit:
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		return fault.Validation("offset", "must not be negative")
	}
	f.Search = strings.TrimSpace(f.Search)
	return nil
}

// ParseIDs parses a comma separated id list such as "1,2,3". Blank entries are
// skipped.
func ParseIDs(field, raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fault.Validation(field, "invalid id "+strconv.Quote(p))
		}
		ids = append(ids, id)
	}
	return ids, nil
}
