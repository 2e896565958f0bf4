package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront/internal/domain/fault"
	"github.com/xenking/storefront/internal/domain/visitor"
)

const (
	insertProductViewSQL = `INSERT INTO product_views (product_id, fingerprint) VALUES ($1, $2)`

	incrementViewsSQL = `UPDATE products SET views_count = views_count + 1 WHERE id = $1`

	touchLastSeenSQL = `INSERT INTO last_seen_products (product_id, fingerprint) VALUES ($1, $2)
		ON CONFLICT (fingerprint, product_id) DO UPDATE SET updated_at = now()`

	listLastSeenSQL = `SELECT id, product_id, fingerprint, created_at, updated_at
		FROM last_seen_products WHERE fingerprint = $1 ORDER BY updated_at DESC, id DESC`

	listSavedSQL = `SELECT id, product_id, fingerprint, created_at, updated_at
		FROM saved_products WHERE fingerprint = $1 ORDER BY created_at DESC, id DESC`

	// The no-op update makes RETURNING yield the existing row on conflict.
	saveProductSQL = `INSERT INTO saved_products (product_id, fingerprint) VALUES ($1, $2)
		ON CONFLICT (fingerprint, product_id) DO UPDATE SET fingerprint = EXCLUDED.fingerprint
		RETURNING id, product_id, fingerprint, created_at, updated_at`

	unsaveProductSQL = `DELETE FROM saved_products WHERE product_id = $1 AND fingerprint = $2`
)

var _ visitor.Repository = (*VisitorRepository)(nil)

// VisitorRepository implements visitor.Repository backed by PostgreSQL.
type VisitorRepository struct {
	db DB
}

// NewVisitorRepository returns a VisitorRepository that uses the given pool.
func NewVisitorRepository(db DB) *VisitorRepository {
	return &VisitorRepository{db: db}
}

// RecordView stores a view row and bumps the product's view counter.
func (r *VisitorRepository) RecordView(ctx context.Context, productID int64, fingerprint string) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertProductViewSQL, productID, fingerprint); err != nil {
			if isPgError(err, codeForeignKeyViolation) {
				return fault.NotFound("product", productID)
			}
			return fmt.Errorf("recording view of product %d: %w", productID, err)
		}
		if _, err := tx.Exec(ctx, incrementViewsSQL, productID); err != nil {
			return fmt.Errorf("incrementing views of product %d: %w", productID, err)
		}
		return nil
	})
}

// TouchLastSeen creates or refreshes the last-seen entry.
func (r *VisitorRepository) TouchLastSeen(ctx context.Context, productID int64, fingerprint string) error {
	if _, err := r.db.Exec(ctx, touchLastSeenSQL, productID, fingerprint); err != nil {
		if isPgError(err, codeForeignKeyViolation) {
			return fault.NotFound("product", productID)
		}
		return fmt.Errorf("touching last seen product %d: %w", productID, err)
	}
	return nil
}

// ListLastSeen returns last-seen entries, most recently viewed first.
func (r *VisitorRepository) ListLastSeen(ctx context.Context, fingerprint string) ([]visitor.Entry, error) {
	rows, err := r.db.Query(ctx, listLastSeenSQL, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("listing last seen products: %w", err)
	}
	return pgx.CollectRows(rows, scanEntry)
}

// ListSaved returns saved entries, newest first.
func (r *VisitorRepository) ListSaved(ctx context.Context, fingerprint string) ([]visitor.Entry, error) {
	rows, err := r.db.Query(ctx, listSavedSQL, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("listing saved products: %w", err)
	}
	return pgx.CollectRows(rows, scanEntry)
}

// Save returns the saved entry for (fingerprint, product), creating it if needed.
func (r *VisitorRepository) Save(ctx context.Context, productID int64, fingerprint string) (*visitor.Entry, error) {
	rows, err := r.db.Query(ctx, saveProductSQL, productID, fingerprint)
	if err != nil {
		if isPgError(err, codeForeignKeyViolation) {
			return nil, fault.NotFound("product", productID)
		}
		return nil, fmt.Errorf("saving product %d: %w", productID, err)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEntry)
	if err != nil {
		if isPgError(err, codeForeignKeyViolation) {
			return nil, fault.NotFound("product", productID)
		}
		return nil, fmt.Errorf("saving product %d: %w", productID, err)
	}
	return &e, nil
}

// Unsave deletes the saved entry and reports whether it existed.
func (r *VisitorRepository) Unsave(ctx context.Context, productID int64, fingerprint string) (bool, error) {
	tag, err := r.db.Exec(ctx, unsaveProductSQL, productID, fingerprint)
	if err != nil {
		return false, fmt.Errorf("unsaving product %d: %w", productID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanEntry(row pgx.CollectableRow) (visitor.Entry, error) {
	var e visitor.Entry
	err := row.Scan(&e.ID, &e.ProductID, &e.Fingerprint, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}
