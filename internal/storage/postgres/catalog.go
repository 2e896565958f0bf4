package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/fault"
)

// productSelect selects the product read model. $1 is the viewer fingerprint;
// an empty fingerprint matches no saved products and no carts.
const productSelect = `SELECT p.id, p.title, COALESCE(p.product_code, ''), p.slug, p.description, p.features,
		p.price, p.sale_price, p.in_stock_count, p.views_count,
		p.is_recommended, p.is_active, p.is_sale, p.created_at,
		c.id, c.title, c.slug, c.parent_id,
		m.id, m.title, m.logo,
		COALESCE((SELECT array_agg(g.image ORDER BY g.position, g.id)
			FROM product_gallery g WHERE g.product_id = p.id), '{}') AS gallery,
		EXISTS (SELECT 1 FROM saved_products s
			WHERE s.product_id = p.id AND s.fingerprint = $1) AS is_in_saved,
		EXISTS (SELECT 1 FROM cart_items ci JOIN carts ct ON ct.id = ci.cart_id
			WHERE ci.product_id = p.id AND ct.fingerprint = $1 AND ct.status = 'active') AS is_in_cart,
		(SELECT COUNT(DISTINCT o.id) FROM orders o JOIN cart_items ci ON ci.cart_id = o.cart_id
			WHERE ci.product_id = p.id AND o.status = 'sold') AS sold_count
	FROM products p
	JOIN categories c ON c.id = p.category_id
	LEFT JOIN manufacturers m ON m.id = p.manufacturer_id`

const (
	getProductBySlugSQL = productSelect + ` WHERE p.slug = $2 AND p.is_active`

	getProductsByIDsSQL = productSelect + ` WHERE p.id = ANY($2) AND p.is_active`

	listBannersSQL = `SELECT b.id, b.title, b.sub_title, b.image, b.is_active, b.url, b.position, b.product_id
		FROM banners b WHERE b.is_active ORDER BY b.position, b.id`

	listParentCategoriesSQL = `SELECT pc.id, pc.title, pc.slug, pc.icon FROM parent_categories pc`

	listChildCategoriesSQL = `SELECT id, title, slug, parent_id FROM categories
		WHERE parent_id = ANY($1) ORDER BY id`
)

var productOrderings = map[catalog.Ordering]string{
	catalog.OrderPriceAsc:      "p.price ASC, p.id ASC",
	catalog.OrderPriceDesc:     "p.price DESC, p.id DESC",
	catalog.OrderViewsAsc:      "p.views_count ASC, p.id ASC",
	catalog.OrderViewsDesc:     "p.views_count DESC, p.id DESC",
	catalog.OrderCreatedAtAsc:  "p.created_at ASC, p.id ASC",
	catalog.OrderCreatedAtDesc: "p.created_at DESC, p.id DESC",
}

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	db DB
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(db DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListProducts returns products matching f. f must be normalized.
func (r *CatalogRepository) ListProducts(ctx context.Context, f catalog.ProductFilter, v catalog.Viewer) ([]catalog.Product, error) {
	query, qargs := buildListProducts(f, v)
	rows, err := r.db.Query(ctx, query, qargs...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func buildListProducts(f catalog.ProductFilter, v catalog.Viewer) (string, []any) {
	a := args{v.Fingerprint}
	var conds []string

	if f.IsActive != nil {
		conds = append(conds, "p.is_active = "+a.add(*f.IsActive))
	}
	if f.IsRecommended != nil {
		conds = append(conds, "p.is_recommended = "+a.add(*f.IsRecommended))
	}
	if f.IsSale != nil {
		conds = append(conds, "p.is_sale = "+a.add(*f.IsSale))
	}
	if f.MinPrice != nil {
		conds = append(conds, "p.price >= "+a.add(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, "p.price <= "+a.add(*f.MaxPrice))
	}
	if len(f.ManufacturerIDs) > 0 {
		conds = append(conds, "p.manufacturer_id = ANY("+a.add(f.ManufacturerIDs)+")")
	}
	if len(f.CategoryIDs) > 0 {
		conds = append(conds, "p.category_id = ANY("+a.add(f.CategoryIDs)+")")
	}
	if len(f.ParentCategoryIDs) > 0 {
		conds = append(conds, "c.parent_id = ANY("+a.add(f.ParentCategoryIDs)+")")
	}
	if f.Search != "" {
		p := a.add("%" + escapeLike(f.Search) + "%")
		conds = append(conds, fmt.Sprintf(
			"(p.title ILIKE %[1]s OR m.title ILIKE %[1]s OR c.title ILIKE %[1]s OR p.product_code ILIKE %[1]s)", p))
	}

	var b strings.Builder
	b.WriteString(productSelect)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	order, ok := productOrderings[f.Ordering]
	if !ok {
		order = productOrderings[catalog.DefaultOrdering]
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(order)
	b.WriteString(" LIMIT ")
	b.WriteString(a.add(f.Limit))
	b.WriteString(" OFFSET ")
	b.WriteString(a.add(f.Offset))

	return b.String(), a
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// GetProductBySlug returns an active product by slug.
func (r *CatalogRepository) GetProductBySlug(ctx context.Context, slug string, v catalog.Viewer) (*catalog.Product, error) {
	rows, err := r.db.Query(ctx, getProductBySlugSQL, v.Fingerprint, slug)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", slug, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("product", slug)
		}
		return nil, fmt.Errorf("getting product %q: %w", slug, err)
	}
	return &p, nil
}

// GetProductsByIDs returns the active products among ids, in no particular order.
func (r *CatalogRepository) GetProductsByIDs(ctx context.Context, ids []int64, v catalog.Viewer) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, getProductsByIDsSQL, v.Fingerprint, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListBanners returns active banners ordered by position with their linked
// products.
func (r *CatalogRepository) ListBanners(ctx context.Context, v catalog.Viewer) ([]catalog.Banner, error) {
	rows, err := r.db.Query(ctx, listBannersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing banners: %w", err)
	}
	type bannerRow struct {
		catalog.Banner
		productID *int64
	}
	banners, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (bannerRow, error) {
		var b bannerRow
		err := row.Scan(&b.ID, &b.Title, &b.SubTitle, &b.Image, &b.IsActive, &b.URL, &b.Position, &b.productID)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning banners: %w", err)
	}

	var ids []int64
	for _, b := range banners {
		if b.productID != nil {
			ids = append(ids, *b.productID)
		}
	}
	products, err := r.GetProductsByIDs(ctx, ids, v)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	out := make([]catalog.Banner, len(banners))
	for i, b := range banners {
		out[i] = b.Banner
		if b.productID != nil {
			out[i].Product = byID[*b.productID]
		}
	}
	return out, nil
}

// ListManufacturers returns manufacturers, optionally only those with products
// in the given categories.
func (r *CatalogRepository) ListManufacturers(ctx context.Context, f catalog.ManufacturerFilter) ([]catalog.Manufacturer, error) {
	var (
		a     args
		conds []string
	)
	if len(f.ParentCategoryIDs) > 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM products p JOIN categories c ON c.id = p.category_id
			WHERE p.manufacturer_id = m.id AND c.parent_id = ANY(`+a.add(f.ParentCategoryIDs)+`))`)
	}
	if len(f.ChildCategoryIDs) > 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM products p
			WHERE p.manufacturer_id = m.id AND p.category_id = ANY(`+a.add(f.ChildCategoryIDs)+`))`)
	}
	query := `SELECT m.id, m.title, m.logo FROM manufacturers m`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY m.id"

	rows, err := r.db.Query(ctx, query, a...)
	if err != nil {
		return nil, fmt.Errorf("listing manufacturers: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Manufacturer, error) {
		var m catalog.Manufacturer
		err := row.Scan(&m.ID, &m.Title, &m.Logo)
		return m, err
	})
}

// ListParentCategories returns parent categories with their children nested.
func (r *CatalogRepository) ListParentCategories(ctx context.Context, f catalog.CategoryFilter) ([]catalog.ParentCategory, error) {
	var (
		a     args
		conds []string
	)
	if f.ID != nil {
		conds = append(conds, "pc.id = "+a.add(*f.ID))
	}
	if f.Slug != "" {
		conds = append(conds, "pc.slug = "+a.add(f.Slug))
	}
	if f.CategoryID != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM categories c WHERE c.parent_id = pc.id AND c.id = "+a.add(*f.CategoryID)+")")
	}
	if f.CategorySlug != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM categories c WHERE c.parent_id = pc.id AND c.slug = "+a.add(f.CategorySlug)+")")
	}
	query := listParentCategoriesSQL
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY pc.id"

	rows, err := r.db.Query(ctx, query, a...)
	if err != nil {
		return nil, fmt.Errorf("listing parent categories: %w", err)
	}
	parents, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.ParentCategory, error) {
		var pc catalog.ParentCategory
		err := row.Scan(&pc.ID, &pc.Title, &pc.Slug, &pc.Icon)
		return pc, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning parent categories: %w", err)
	}
	if len(parents) == 0 {
		return parents, nil
	}

	ids := make([]int64, len(parents))
	index := make(map[int64]int, len(parents))
	for i, pc := range parents {
		ids[i] = pc.ID
		index[pc.ID] = i
	}
	rows, err = r.db.Query(ctx, listChildCategoriesSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	children, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.ParentID)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning categories: %w", err)
	}
	for _, c := range children {
		i := index[c.ParentID]
		parents[i].Categories = append(parents[i].Categories, c)
	}
	return parents, nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p       catalog.Product
		price   decimal.Decimal
		sale    decimal.NullDecimal
		mID     *int64
		mTitle  *string
		mLogo   *string
		gallery []string
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.ProductCode, &p.Slug, &p.Description, &p.Features,
		&price, &sale, &p.InStockCount, &p.ViewsCount,
		&p.IsRecommended, &p.IsActive, &p.IsSale, &p.CreatedAt,
		&p.Category.ID, &p.Category.Title, &p.Category.Slug, &p.Category.ParentID,
		&mID, &mTitle, &mLogo,
		&gallery, &p.IsInSaved, &p.IsInCart, &p.SoldCount,
	)
	if err != nil {
		return catalog.Product{}, err
	}
	p.Price = price
	p.SalePrice = sale
	p.Gallery = gallery
	if mID != nil {
		p.Manufacturer = &catalog.Manufacturer{ID: *mID}
		if mTitle != nil {
			p.Manufacturer.Title = *mTitle
		}
		if mLogo != nil {
			p.Manufacturer.Logo = *mLogo
		}
	}
	return p, nil
}
