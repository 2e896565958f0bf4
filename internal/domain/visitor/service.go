package visitor

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/fault"
)

// DedupeConfig sizes the in-process filter that suppresses repeated views of
// the same product by the same fingerprint.
type DedupeConfig struct {
	Capacity          uint
	FalsePositiveRate float64
}

// Service assembles visitor-scoped product lists and records product visits.
type Service struct {
	visits   Repository
	products catalog.Repository

	// seen dedupes views within this process only. It is reset once it holds
	// capacity keys, so a repeat view may still be counted; a false positive
	// may drop a first view.
	mu       sync.Mutex
	seen     *bloom.BloomFilter
	seenKeys uint
	capacity uint
}

// NewService creates a visitor Service.
func NewService(visits Repository, products catalog.Repository, cfg DedupeConfig) *Service {
	if cfg.Capacity == 0 {
		cfg.Capacity = 100_000
	}
	if cfg.FalsePositiveRate <= 0 || cfg.FalsePositiveRate >= 1 {
		cfg.FalsePositiveRate = 0.001
	}
	return &Service{
		visits:   visits,
		products: products,
		seen:     bloom.NewWithEstimates(cfg.Capacity, cfg.FalsePositiveRate),
		capacity: cfg.Capacity,
	}
}

// ProductDetail loads a product by slug for the viewer. For identified
// viewers it records the visit; failures to record are logged and do not fail
// the read.
func (s *Service) ProductDetail(ctx context.Context, slug string, v catalog.Viewer) (*catalog.Product, error) {
	p, err := s.products.GetProductBySlug(ctx, slug, v)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	if v.Anonymous() {
		return p, nil
	}
	if err := s.RecordVisit(ctx, p.ID, v.Fingerprint); err != nil {
		zctx.From(ctx).Warn("Record product visit",
			zap.Int64("product_id", p.ID),
			zap.Error(err),
		)
	}
	return p, nil
}

// RecordVisit counts a view (unless recently seen) and refreshes the
// last-seen entry for fingerprint.
func (s *Service) RecordVisit(ctx context.Context, productID int64, fingerprint string) error {
	if err := fault.MaxLength("fingerprint", fingerprint, fault.MaxFingerprintLength); err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	if s.firstView(productID, fingerprint) {
		g.Go(func() error {
			if err := s.visits.RecordView(ctx, productID, fingerprint); err != nil {
				return errors.Wrap(err, "record view")
			}
			return nil
		})
	}
	g.Go(func() error {
		if err := s.visits.TouchLastSeen(ctx, productID, fingerprint); err != nil {
			return errors.Wrap(err, "touch last seen")
		}
		return nil
	})
	return g.Wait()
}

func (s *Service) firstView(productID int64, fingerprint string) bool {
	key := fingerprint + "\x00" + strconv.FormatInt(productID, 10)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seenKeys >= s.capacity {
		s.seen.ClearAll()
		s.seenKeys = 0
	}
	if s.seen.TestAndAddString(key) {
		return false
	}
	s.seenKeys++
	return true
}

// LastSeen returns the products fingerprint viewed, most recent first.
func (s *Service) LastSeen(ctx context.Context, v catalog.Viewer) ([]Entry, error) {
	if v.Anonymous() {
		return nil, nil
	}
	entries, err := s.visits.ListLastSeen(ctx, v.Fingerprint)
	if err != nil {
		return nil, errors.Wrap(err, "list last seen")
	}
	return s.attachProducts(ctx, entries, v)
}

// Saved returns the products fingerprint bookmarked, most recent first.
func (s *Service) Saved(ctx context.Context, v catalog.Viewer) ([]Entry, error) {
	if v.Anonymous() {
		return nil, nil
	}
	entries, err := s.visits.ListSaved(ctx, v.Fingerprint)
	if err != nil {
		return nil, errors.Wrap(err, "list saved")
	}
	return s.attachProducts(ctx, entries, v)
}

// Save bookmarks a product. Saving twice returns the existing entry.
func (s *Service) Save(ctx context.Context, productID int64, fingerprint string) (*Entry, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return nil, ErrFingerprintRequired
	}
	if err := fault.MaxLength("fingerprint", fingerprint, fault.MaxFingerprintLength); err != nil {
		return nil, err
	}
	e, err := s.visits.Save(ctx, productID, fingerprint)
	if err != nil {
		return nil, errors.Wrap(err, "save product")
	}
	return e, nil
}

// Unsave removes a bookmark and reports whether one existed.
func (s *Service) Unsave(ctx context.Context, productID int64, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, ErrFingerprintRequired
	}
	deleted, err := s.visits.Unsave(ctx, productID, fingerprint)
	if err != nil {
		return false, errors.Wrap(err, "unsave product")
	}
	return deleted, nil
}

// attachProducts fills Entry.Product with read models built for v. Entries
// whose product is gone (or inactive and filtered out) are dropped.
func (s *Service) attachProducts(ctx context.Context, entries []Entry, v catalog.Viewer) ([]Entry, error) {
	if len(entries) == 0 {
		return entries, nil
	}
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ProductID
	}
	products, err := s.products.GetProductsByIDs(ctx, ids, v)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[int64]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := entries[:0]
	for _, e := range entries {
		p, ok := byID[e.ProductID]
		if !ok {
			continue
		}
		e.Product = p
		out = append(out, e)
	}
	return out, nil
}
