// Package visitor tracks what an anonymous client looked at and bookmarked:
// product views, the last-seen list and saved products, all scoped by the
// client fingerprint.
package visitor

import (
	"context"
	"time"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/fault"
)

// ErrFingerprintRequired is returned by mutations that need a client identity.
var ErrFingerprintRequired = &fault.ValidationError{Field: "fingerprint", Reason: "is required"}

// Entry links a fingerprint to a product. It is the shape of both saved and
// last-seen records.
type Entry struct {
	ID          int64
	ProductID   int64
	Fingerprint string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Product     catalog.Product
}

// Repository defines persistence for visitor activity.
type Repository interface {
	// RecordView stores a view and increments the product's view counter.
	RecordView(ctx context.Context, productID int64, fingerprint string) error
	// TouchLastSeen creates the last-seen entry or refreshes its timestamp.
	TouchLastSeen(ctx context.Context, productID int64, fingerprint string) error
	ListLastSeen(ctx context.Context, fingerprint string) ([]Entry, error)

	ListSaved(ctx context.Context, fingerprint string) ([]Entry, error)
	// Save is get-or-create on (fingerprint, product). Unknown products fail
	// with catalog.ErrProductNotFound.
	Save(ctx context.Context, productID int64, fingerprint string) (*Entry, error)
	// Unsave reports whether an entry was deleted.
	Unsave(ctx context.Context, productID int64, fingerprint string) (bool, error)
}
