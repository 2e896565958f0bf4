package search

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/fault"
)

// Service validates and records search history.
type Service struct {
	history Repository
}

// NewService creates a search Service.
func NewService(history Repository) *Service {
	return &Service{history: history}
}

// Record stores query for fingerprint.
func (s *Service) Record(ctx context.Context, fingerprint, query string) (*Entry, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return nil, ErrFingerprintRequired
	}
	if err := fault.MaxLength("fingerprint", fingerprint, fault.MaxFingerprintLength); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	switch {
	case query == "":
		return nil, ErrQueryRequired
	case utf8.RuneCountInString(query) > MaxQueryLength:
		return nil, ErrQueryTooLong
	}

	e, err := s.history.Create(ctx, fingerprint, query)
	if err != nil {
		return nil, errors.Wrap(err, "create search entry")
	}
	return e, nil
}

// History returns the searches of fingerprint. An empty fingerprint has no
// history.
func (s *Service) History(ctx context.Context, fingerprint string) ([]Entry, error) {
	if fingerprint == "" {
		return nil, nil
	}
	entries, err := s.history.List(ctx, fingerprint)
	if err != nil {
		return nil, errors.Wrap(err, "list search history")
	}
	return entries, nil
}

// Delete removes one of fingerprint's entries.
func (s *Service) Delete(ctx context.Context, id int64, fingerprint string) error {
	if fingerprint == "" {
		return ErrFingerprintRequired
	}
	if err := s.history.Delete(ctx, id, fingerprint); err != nil {
		return errors.Wrap(err, "delete search entry")
	}
	return nil
}

// Popular returns the most frequent queries across all visitors.
func (s *Service) Popular(ctx context.Context) ([]Popular, error) {
	p, err := s.history.Popular(ctx, PopularLimit)
	if err != nil {
		return nil, errors.Wrap(err, "popular searches")
	}
	return p, nil
}
