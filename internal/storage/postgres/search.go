package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront/internal/domain/search"
)

const (
	createSearchSQL = `INSERT INTO search_history (fingerprint, query) VALUES ($1, $2)
		RETURNING id, query, fingerprint, created_at`

	listSearchSQL = `SELECT id, query, fingerprint, created_at FROM search_history
		WHERE fingerprint = $1 ORDER BY created_at DESC, id DESC`

	deleteSearchSQL = `DELETE FROM search_history WHERE id = $1 AND fingerprint = $2`

	popularSearchSQL = `SELECT query, COUNT(*) AS cnt FROM search_history
		GROUP BY query ORDER BY cnt DESC, MIN(id) ASC LIMIT $1`
)

var _ search.Repository = (*SearchRepository)(nil)

// SearchRepository implements search.Repository backed by PostgreSQL.
type SearchRepository struct {
	db DB
}

// NewSearchRepository returns a SearchRepository that uses the given pool.
func NewSearchRepository(db DB) *SearchRepository {
	return &SearchRepository{db: db}
}

func (r *SearchRepository) Create(ctx context.Context, fingerprint, query string) (*search.Entry, error) {
	var e search.Entry
	err := r.db.QueryRow(ctx, createSearchSQL, fingerprint, query).
		Scan(&e.ID, &e.Query, &e.Fingerprint, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating search entry: %w", err)
	}
	return &e, nil
}

func (r *SearchRepository) List(ctx context.Context, fingerprint string) ([]search.Entry, error) {
	rows, err := r.db.Query(ctx, listSearchSQL, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("listing search history: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (search.Entry, error) {
		var e search.Entry
		err := row.Scan(&e.ID, &e.Query, &e.Fingerprint, &e.CreatedAt)
		return e, err
	})
}

func (r *SearchRepository) Delete(ctx context.Context, id int64, fingerprint string) error {
	if _, err := r.db.Exec(ctx, deleteSearchSQL, id, fingerprint); err != nil {
		return fmt.Errorf("deleting search entry %d: %w", id, err)
	}
	return nil
}

// Popular groups by exact query text. Ties keep the order of first occurrence.
func (r *SearchRepository) Popular(ctx context.Context, limit int) ([]search.Popular, error) {
	rows, err := r.db.Query(ctx, popularSearchSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("aggregating popular searches: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (search.Popular, error) {
		var p search.Popular
		err := row.Scan(&p.Query, &p.Count)
		return p, err
	})
}
