package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Fixture is catalog and content data loaded by the seeding tool. Records
// reference each other by natural key: manufacturer title, category slug and
// product slug.
type Fixture struct {
	Manufacturers    []FixtureManufacturer   `json:"manufacturers"`
	ParentCategories []FixtureParentCategory `json:"parent_categories"`
	Products         []FixtureProduct        `json:"products"`
	Banners          []FixtureBanner         `json:"banners"`
	Contact          *FixtureContact         `json:"contact"`
	Employees        []FixtureEmployee       `json:"employees"`
	About            *FixtureAbout           `json:"about"`
}

type FixtureManufacturer struct {
	Title string `json:"title"`
	Logo  string `json:"logo"`
}

type FixtureParentCategory struct {
	Title      string            `json:"title"`
	Slug       string            `json:"slug"`
	Icon       string            `json:"icon"`
	Categories []FixtureCategory `json:"categories"`
}

type FixtureCategory struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type FixtureProduct struct {
	Title         string              `json:"title"`
	Slug          string              `json:"slug"`
	ProductCode   string              `json:"product_code"`
	Manufacturer  string              `json:"manufacturer"`
	Category      string              `json:"category"`
	Description   string              `json:"description"`
	Features      string              `json:"features"`
	Price         decimal.Decimal     `json:"price"`
	SalePrice     decimal.NullDecimal `json:"sale_price"`
	InStockCount  *int                `json:"in_stock_count"`
	IsRecommended bool                `json:"is_recommended"`
	IsActive      *bool               `json:"is_active"`
	IsSale        bool                `json:"is_sale"`
	Gallery       []string            `json:"gallery"`
}

type FixtureBanner struct {
	Title    string `json:"title"`
	SubTitle string `json:"sub_title"`
	Image    string `json:"image"`
	URL      string `json:"url"`
	Product  string `json:"product"`
	Position int    `json:"position"`
}

type FixtureContact struct {
	Address   string          `json:"address"`
	Email     string          `json:"email"`
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
	Phones    []string        `json:"phones"`
	Socials   []FixtureSocial `json:"socials"`
}

type FixtureSocial struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon"`
}

type FixtureEmployee struct {
	Name             string `json:"name"`
	Image            string `json:"image"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	TelegramUsername string `json:"telegram_username"`
}

type FixtureAbout struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Cover       string `json:"cover"`
}

// Merge appends the records of other to f. A later contact or about block
// replaces an earlier one.
func (f *Fixture) Merge(other Fixture) {
	f.Manufacturers = append(f.Manufacturers, other.Manufacturers...)
	f.ParentCategories = append(f.ParentCategories, other.ParentCategories...)
	f.Products = append(f.Products, other.Products...)
	f.Banners = append(f.Banners, other.Banners...)
	f.Employees = append(f.Employees, other.Employees...)
	if other.Contact != nil {
		f.Contact = other.Contact
	}
	if other.About != nil {
		f.About = other.About
	}
}

// SeedStats counts the records written by Seed.
type SeedStats struct {
	Manufacturers int
	Categories    int
	Products      int
	Banners       int
}

const (
	updateManufacturerSQL = `UPDATE manufacturers SET logo = $2, updated_at = now()
		WHERE id = (SELECT id FROM manufacturers WHERE title = $1 ORDER BY id LIMIT 1)
		RETURNING id`

	insertManufacturerSQL = `INSERT INTO manufacturers (title, logo) VALUES ($1, $2) RETURNING id`

	upsertParentCategorySQL = `INSERT INTO parent_categories (title, slug, icon) VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET title = EXCLUDED.title, icon = EXCLUDED.icon, updated_at = now()
		RETURNING id`

	upsertCategorySQL = `INSERT INTO categories (title, slug, parent_id) VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET title = EXCLUDED.title, parent_id = EXCLUDED.parent_id, updated_at = now()
		RETURNING id`

	upsertProductSQL = `INSERT INTO products (manufacturer_id, category_id, title, product_code, slug,
			description, features, price, sale_price, in_stock_count, is_recommended, is_active, is_sale)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (slug) DO UPDATE SET
			manufacturer_id = EXCLUDED.manufacturer_id, category_id = EXCLUDED.category_id,
			title = EXCLUDED.title, product_code = EXCLUDED.product_code,
			description = EXCLUDED.description, features = EXCLUDED.features,
			price = EXCLUDED.price, sale_price = EXCLUDED.sale_price,
			in_stock_count = EXCLUDED.in_stock_count, is_recommended = EXCLUDED.is_recommended,
			is_active = EXCLUDED.is_active, is_sale = EXCLUDED.is_sale, updated_at = now()
		RETURNING id`

	deleteGallerySQL = `DELETE FROM product_gallery WHERE product_id = $1`

	insertGallerySQL = `INSERT INTO product_gallery (product_id, image, position) VALUES ($1, $2, $3)`

	deleteBannersSQL = `DELETE FROM banners`

	insertBannerSQL = `INSERT INTO banners (title, sub_title, image, url, product_id, position)
		VALUES ($1, $2, $3, $4, $5, $6)`

	deleteContactSQL = `DELETE FROM contact_info`

	insertContactSQL = `INSERT INTO contact_info (address, email, latitude, longitude)
		VALUES ($1, $2, $3, $4) RETURNING id`

	insertContactPhoneSQL = `INSERT INTO contact_phones (contact_id, phone) VALUES ($1, $2)`

	insertSocialSQL = `INSERT INTO social_media (contact_id, name, url, icon) VALUES ($1, $2, $3, $4)`

	deleteEmployeesSQL = `DELETE FROM employee_contacts`

	insertEmployeeSQL = `INSERT INTO employee_contacts (name, image, phone, email, telegram_username)
		VALUES ($1, $2, $3, $4, $5)`

	deleteAboutSQL = `DELETE FROM about_us`

	insertAboutSQL = `INSERT INTO about_us (title, description, cover) VALUES ($1, $2, $3)`
)

// Seed writes fx in a single transaction. Manufacturers are matched by title,
// categories and products by slug. Banners, employees, contact and about
// content are replaced when fx carries them.
func Seed(ctx context.Context, db DB, fx Fixture) (SeedStats, error) {
	var stats SeedStats
	err := withTx(ctx, db, func(tx pgx.Tx) error {
		s := seeder{tx: tx, manufacturers: map[string]int64{}, categories: map[string]int64{}, products: map[string]int64{}}

		steps := []struct {
			name string
			fn   func(context.Context, Fixture) error
		}{
			{"manufacturers", s.manufacturersStep},
			{"categories", s.categoriesStep},
			{"products", s.productsStep},
			{"banners", s.bannersStep},
			{"contact", s.contactStep},
		}
		for _, step := range steps {
			if err := step.fn(ctx, fx); err != nil {
				return errors.Wrapf(err, "seed %s", step.name)
			}
		}

		stats = SeedStats{
			Manufacturers: len(s.manufacturers),
			Categories:    len(s.categories),
			Products:      len(s.products),
			Banners:       s.banners,
		}
		return nil
	})
	return stats, err
}

type seeder struct {
	tx pgx.Tx

	manufacturers map[string]int64
	categories    map[string]int64
	products      map[string]int64
	banners       int
}

func (s *seeder) manufacturersStep(ctx context.Context, fx Fixture) error {
	for _, m := range fx.Manufacturers {
		var id int64
		err := s.tx.QueryRow(ctx, updateManufacturerSQL, m.Title, m.Logo).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			err = s.tx.QueryRow(ctx, insertManufacturerSQL, m.Title, m.Logo).Scan(&id)
		}
		if err != nil {
			return fmt.Errorf("upserting manufacturer %q: %w", m.Title, err)
		}
		s.manufacturers[m.Title] = id
	}
	return nil
}

func (s *seeder) categoriesStep(ctx context.Context, fx Fixture) error {
	for _, pc := range fx.ParentCategories {
		var parentID int64
		if err := s.tx.QueryRow(ctx, upsertParentCategorySQL, pc.Title, pc.Slug, pc.Icon).Scan(&parentID); err != nil {
			return fmt.Errorf("upserting parent category %q: %w", pc.Slug, err)
		}
		for _, c := range pc.Categories {
			var id int64
			if err := s.tx.QueryRow(ctx, upsertCategorySQL, c.Title, c.Slug, parentID).Scan(&id); err != nil {
				return fmt.Errorf("upserting category %q: %w", c.Slug, err)
			}
			s.categories[c.Slug] = id
		}
	}
	return nil
}

func (s *seeder) productsStep(ctx context.Context, fx Fixture) error {
	for _, p := range fx.Products {
		categoryID, ok := s.categories[p.Category]
		if !ok {
			return errors.Errorf("product %q: unknown category %q", p.Slug, p.Category)
		}
		var manufacturerID *int64
		if p.Manufacturer != "" {
			id, ok := s.manufacturers[p.Manufacturer]
			if !ok {
				return errors.Errorf("product %q: unknown manufacturer %q", p.Slug, p.Manufacturer)
			}
			manufacturerID = &id
		}
		inStock := 9999
		if p.InStockCount != nil {
			inStock = *p.InStockCount
		}
		active := true
		if p.IsActive != nil {
			active = *p.IsActive
		}

		var id int64
		err := s.tx.QueryRow(ctx, upsertProductSQL,
			manufacturerID, categoryID, p.Title, p.ProductCode, p.Slug,
			p.Description, p.Features, p.Price, p.SalePrice, inStock,
			p.IsRecommended, active, p.IsSale,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("upserting product %q: %w", p.Slug, err)
		}
		s.products[p.Slug] = id

		if _, err := s.tx.Exec(ctx, deleteGallerySQL, id); err != nil {
			return fmt.Errorf("clearing gallery of %q: %w", p.Slug, err)
		}
		for i, img := range p.Gallery {
			if _, err := s.tx.Exec(ctx, insertGallerySQL, id, img, i); err != nil {
				return fmt.Errorf("adding gallery image of %q: %w", p.Slug, err)
			}
		}
	}
	return nil
}

func (s *seeder) bannersStep(ctx context.Context, fx Fixture) error {
	if len(fx.Banners) == 0 {
		return nil
	}
	if _, err := s.tx.Exec(ctx, deleteBannersSQL); err != nil {
		return fmt.Errorf("clearing banners: %w", err)
	}
	for _, b := range fx.Banners {
		var productID *int64
		if b.Product != "" {
			id, ok := s.products[b.Product]
			if !ok {
				return errors.Errorf("banner %q: unknown product %q", b.Title, b.Product)
			}
			productID = &id
		}
		if _, err := s.tx.Exec(ctx, insertBannerSQL, b.Title, b.SubTitle, b.Image, b.URL, productID, b.Position); err != nil {
			return fmt.Errorf("inserting banner %q: %w", b.Title, err)
		}
		s.banners++
	}
	return nil
}

func (s *seeder) contactStep(ctx context.Context, fx Fixture) error {
	if c := fx.Contact; c != nil {
		if _, err := s.tx.Exec(ctx, deleteContactSQL); err != nil {
			return fmt.Errorf("clearing contact info: %w", err)
		}
		var id int64
		if err := s.tx.QueryRow(ctx, insertContactSQL, c.Address, c.Email, c.Latitude, c.Longitude).Scan(&id); err != nil {
			return fmt.Errorf("inserting contact info: %w", err)
		}
		for _, phone := range c.Phones {
			if _, err := s.tx.Exec(ctx, insertContactPhoneSQL, id, phone); err != nil {
				return fmt.Errorf("inserting contact phone: %w", err)
			}
		}
		for _, sm := range c.Socials {
			if _, err := s.tx.Exec(ctx, insertSocialSQL, id, sm.Name, sm.URL, sm.Icon); err != nil {
				return fmt.Errorf("inserting social link %q: %w", sm.Name, err)
			}
		}
	}
	if len(fx.Employees) > 0 {
		if _, err := s.tx.Exec(ctx, deleteEmployeesSQL); err != nil {
			return fmt.Errorf("clearing employees: %w", err)
		}
		for _, e := range fx.Employees {
			if _, err := s.tx.Exec(ctx, insertEmployeeSQL, e.Name, e.Image, e.Phone, e.Email, e.TelegramUsername); err != nil {
				return fmt.Errorf("inserting employee %q: %w", e.Name, err)
			}
		}
	}
	if a := fx.About; a != nil {
		if _, err := s.tx.Exec(ctx, deleteAboutSQL); err != nil {
			return fmt.Errorf("clearing about section: %w", err)
		}
		if _, err := s.tx.Exec(ctx, insertAboutSQL, a.Title, a.Description, a.Cover); err != nil {
			return fmt.Errorf("inserting about section: %w", err)
		}
	}
	return nil
}
