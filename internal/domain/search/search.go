// Package search records what visitors searched for and aggregates the most
// popular queries.
package search

import (
	"context"
	"time"

	"github.com/xenking/storefront/internal/domain/fault"
)

// PopularLimit is the number of queries returned by the popular aggregation.
const PopularLimit = 5

// MaxQueryLength bounds a stored query.
const MaxQueryLength = 250

var (
	ErrQueryRequired       = &fault.ValidationError{Field: "query", Reason: "is required"}
	ErrQueryTooLong        = &fault.ValidationError{Field: "query", Reason: "must be at most 250 characters"}
	ErrFingerprintRequired = &fault.ValidationError{Field: "fingerprint", Reason: "is required"}
)

// Entry is a single recorded search.
type Entry struct {
	ID          int64
	Query       string
	Fingerprint string
	CreatedAt   time.Time
}

// Popular is a query together with the number of times it was recorded.
type Popular struct {
	Query string
	Count int
}

// Repository defines persistence for search history.
type Repository interface {
	Create(ctx context.Context, fingerprint, query string) (*Entry, error)
	// List returns entries of fingerprint, newest first.
	List(ctx context.Context, fingerprint string) ([]Entry, error)
	// Delete removes the entry if it belongs to fingerprint. Missing entries
	// are not an error.
	Delete(ctx context.Context, id int64, fingerprint string) error
	// Popular groups entries by exact query text and returns the top limit
	// groups by count, ties broken by first occurrence.
	Popular(ctx context.Context, limit int) ([]Popular, error)
}
