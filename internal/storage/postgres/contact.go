package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront/internal/domain/contact"
)

const (
	getContactInfoSQL = `SELECT id, address, email, latitude, longitude FROM contact_info
		ORDER BY id DESC LIMIT 1`

	listContactPhonesSQL = `SELECT phone FROM contact_phones WHERE contact_id = $1 ORDER BY id`

	listSocialMediaSQL = `SELECT id, name, url, icon FROM social_media WHERE contact_id = $1 ORDER BY id`

	getAboutSQL = `SELECT id, title, description, cover FROM about_us ORDER BY id DESC LIMIT 1`

	listEmployeesSQL = `SELECT id, name, image, phone, email, telegram_username
		FROM employee_contacts ORDER BY id`

	createContactFormSQL = `INSERT INTO contact_forms (name, email, phone, question)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`
)

var _ contact.Repository = (*ContactRepository)(nil)

// ContactRepository implements contact.Repository backed by PostgreSQL.
type ContactRepository struct {
	db DB
}

// NewContactRepository returns a ContactRepository that uses the given pool.
func NewContactRepository(db DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// GetInfo returns the latest contact block with its phones and social links.
func (r *ContactRepository) GetInfo(ctx context.Context) (*contact.Info, error) {
	var info contact.Info
	err := r.db.QueryRow(ctx, getContactInfoSQL).
		Scan(&info.ID, &info.Address, &info.Email, &info.Latitude, &info.Longitude)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contact.ErrNotConfigured
		}
		return nil, fmt.Errorf("getting contact info: %w", err)
	}

	rows, err := r.db.Query(ctx, listContactPhonesSQL, info.ID)
	if err != nil {
		return nil, fmt.Errorf("listing contact phones: %w", err)
	}
	if info.Phones, err = pgx.CollectRows(rows, pgx.RowTo[string]); err != nil {
		return nil, fmt.Errorf("scanning contact phones: %w", err)
	}

	rows, err = r.db.Query(ctx, listSocialMediaSQL, info.ID)
	if err != nil {
		return nil, fmt.Errorf("listing social media: %w", err)
	}
	info.Socials, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (contact.Social, error) {
		var s contact.Social
		err := row.Scan(&s.ID, &s.Name, &s.URL, &s.Icon)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning social media: %w", err)
	}
	return &info, nil
}

// GetAbout returns the latest about section or nil.
func (r *ContactRepository) GetAbout(ctx context.Context) (*contact.About, error) {
	var a contact.About
	err := r.db.QueryRow(ctx, getAboutSQL).Scan(&a.ID, &a.Title, &a.Description, &a.Cover)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting about section: %w", err)
	}
	return &a, nil
}

func (r *ContactRepository) ListEmployees(ctx context.Context) ([]contact.Employee, error) {
	rows, err := r.db.Query(ctx, listEmployeesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (contact.Employee, error) {
		var e contact.Employee
		err := row.Scan(&e.ID, &e.Name, &e.Image, &e.Phone, &e.Email, &e.TelegramUsername)
		return e, err
	})
}

// CreateForm stores f and fills its ID and CreatedAt.
func (r *ContactRepository) CreateForm(ctx context.Context, f *contact.Form) error {
	err := r.db.QueryRow(ctx, createContactFormSQL, f.Name, f.Email, f.Phone, f.Question).
		Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating contact form: %w", err)
	}
	return nil
}
