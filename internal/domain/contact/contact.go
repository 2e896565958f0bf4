// Package contact holds the storefront's contact page content and the
// contact form visitors submit.
package contact

import (
	"context"
	"time"

	"github.com/xenking/storefront/internal/domain/fault"
)

// ErrNotConfigured is returned when no contact details were published yet.
var ErrNotConfigured = &fault.NotFoundError{Entity: "contact info"}

// Info is the published contact block.
type Info struct {
	ID        int64
	Address   string
	Email     string
	Latitude  *float64
	Longitude *float64
	Phones    []string
	Socials   []Social
}

// Social is a link to a social network profile.
type Social struct {
	ID   int64
	Name string
	URL  string
	Icon string
}

// Employee is a staff member visitors may reach directly.
type Employee struct {
	ID               int64
	Name             string
	Image            string
	Phone            string
	Email            string
	TelegramUsername string
}

// About is the "about us" section.
type About struct {
	ID          int64
	Title       string
	Description string
	Cover       string
}

// Page is everything the contact page renders.
type Page struct {
	Info      Info
	About     *About
	Employees []Employee
}

// MaxFieldLength bounds the name, phone and email of a contact form.
const MaxFieldLength = 255

// Form is a question submitted by a visitor.
type Form struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Question  string
	CreatedAt time.Time
}

// Repository defines persistence for contact content.
type Repository interface {
	// GetInfo returns the most recent contact block or ErrNotConfigured.
	GetInfo(ctx context.Context) (*Info, error)
	// GetAbout returns the most recent about section, nil if none exists.
	GetAbout(ctx context.Context) (*About, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	CreateForm(ctx context.Context, f *Form) error
}
