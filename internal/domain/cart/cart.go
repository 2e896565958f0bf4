// Package cart implements the cart aggregate: an anonymous client's in-progress
// selection of products, its totals, and the rules for mutating it.
package cart

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/fault"
)

// Status is the lifecycle state of a cart.
type Status string

const (
	// StatusActive carts accept mutations and can be placed as an order.
	StatusActive Status = "active"
	// StatusInactive carts were finalized by an order and are read-only.
	StatusInactive Status = "inactive"
)

// MaxQuantity is the largest quantity a cart line can hold.
const MaxQuantity = math.MaxInt32

// Sentinel errors. Each is a fault category, see package fault.
var (
	ErrNotFound            = &fault.NotFoundError{Entity: "cart"}
	ErrItemNotFound        = &fault.NotFoundError{Entity: "cart item"}
	ErrInvalidQuantity     = &fault.ValidationError{Field: "quantity", Reason: "must be between 1 and 2147483647"}
	ErrEmptyCart           = &fault.ValidationError{Field: "cart", Reason: "cart must not be empty"}
	ErrFingerprintRequired = &fault.ValidationError{Field: "fingerprint", Reason: "is required"}
	ErrInactive            = &fault.ConflictError{Reason: "cart is not active"}
)

// Cart is a product selection owned by a client fingerprint. Several active
// carts may exist for one fingerprint; the newest is the one clients use.
type Cart struct {
	ID          int64
	Fingerprint string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Active reports whether the cart still accepts mutations.
func (c *Cart) Active() bool { return c.Status == StatusActive }

// Item is a cart line. Product carries the price data needed for totals.
type Item struct {
	ID        int64
	CartID    int64
	ProductID int64
	Quantity  int
	Product   ProductSnapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductSnapshot is the part of a product the cart needs to price a line.
type ProductSnapshot struct {
	Title     string
	Price     decimal.Decimal
	SalePrice decimal.NullDecimal
}

// Repository defines persistence for carts and their items.
//
// Item mutations must run in a transaction that locks the owning cart row and
// fail with ErrInactive when the cart is no longer active.
type Repository interface {
	Create(ctx context.Context, fingerprint string) (*Cart, error)
	GetByID(ctx context.Context, id int64) (*Cart, error)
	ListByFingerprint(ctx context.Context, fingerprint string) ([]Cart, error)

	// AddItem inserts a line or increments the quantity of the existing line
	// for the same product. Returns catalog.ErrProductNotFound for unknown
	// products and ErrInvalidQuantity when the merged quantity exceeds
	// MaxQuantity.
	AddItem(ctx context.Context, cartID, productID int64, quantity int) (*Item, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (*Item, error)
	// RemoveItem deletes a line. Deleting a missing line is not an error.
	RemoveItem(ctx context.Context, itemID int64) error
	ListItems(ctx context.Context, cartID int64) ([]Item, error)
}
