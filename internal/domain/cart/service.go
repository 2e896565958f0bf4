package cart

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/fault"
)

// Service encapsulates cart business rules on top of a Repository.
type Service struct {
	carts Repository
}

// NewService creates a cart Service.
func NewService(carts Repository) *Service {
	return &Service{carts: carts}
}

// AddItemRequest holds the input for adding a product to a cart.
type AddItemRequest struct {
	CartID    int64
	ProductID int64
	Quantity  int
}

// Create opens a new active cart for fingerprint. Existing active carts for
// the same fingerprint are left untouched.
func (s *Service) Create(ctx context.Context, fingerprint string) (*Cart, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return nil, ErrFingerprintRequired
	}
	if err := fault.MaxLength("fingerprint", fingerprint, fault.MaxFingerprintLength); err != nil {
		return nil, err
	}
	c, err := s.carts.Create(ctx, fingerprint)
	if err != nil {
		return nil, errors.Wrap(err, "create cart")
	}
	return c, nil
}

// List returns the carts of fingerprint, newest first. An empty fingerprint
// yields no carts.
func (s *Service) List(ctx context.Context, fingerprint string) ([]Cart, error) {
	if fingerprint == "" {
		return nil, nil
	}
	carts, err := s.carts.ListByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, errors.Wrap(err, "list carts")
	}
	return carts, nil
}

// AddItem adds quantity units of a product to a cart, merging with an existing
// line for the same product.
func (s *Service) AddItem(ctx context.Context, req AddItemRequest) (*Item, error) {
	if req.Quantity < 1 || req.Quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	it, err := s.carts.AddItem(ctx, req.CartID, req.ProductID, req.Quantity)
	if err != nil {
		return nil, errors.Wrap(err, "add item")
	}
	return it, nil
}

// UpdateItemQuantity sets the quantity of a cart line.
func (s *Service) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (*Item, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	it, err := s.carts.UpdateItemQuantity(ctx, itemID, quantity)
	if err != nil {
		return nil, errors.Wrap(err, "update item quantity")
	}
	return it, nil
}

// RemoveItem deletes a cart line; removing an absent line succeeds.
func (s *Service) RemoveItem(ctx context.Context, itemID int64) error {
	if err := s.carts.RemoveItem(ctx, itemID); err != nil {
		return errors.Wrap(err, "remove item")
	}
	return nil
}

// Items returns the lines of a cart, newest first.
func (s *Service) Items(ctx context.Context, cartID int64) ([]Item, error) {
	items, err := s.carts.ListItems(ctx, cartID)
	if err != nil {
		return nil, errors.Wrap(err, "list items")
	}
	return items, nil
}

// Totals computes the totals of an existing cart.
func (s *Service) Totals(ctx context.Context, cartID int64) (Totals, error) {
	if _, err := s.carts.GetByID(ctx, cartID); err != nil {
		return Totals{}, errors.Wrap(err, "get cart")
	}
	items, err := s.carts.ListItems(ctx, cartID)
	if err != nil {
		return Totals{}, errors.Wrap(err, "list items")
	}
	return ComputeTotals(items), nil
}
