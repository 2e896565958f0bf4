package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
)

// Status is the moderation state of an order.
type Status string

const (
	StatusInModeration Status = "in_moderation"
	StatusSold         Status = "sold"
	StatusCancelled    Status = "cancelled"
)

// Display returns the human readable status label.
func (s Status) Display() string {
	switch s {
	case StatusInModeration:
		return "In moderation"
	case StatusSold:
		return "Sold"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// Order finalizes a single cart with the customer's contact details.
//
// InStockSubtracted is persisted but never set by placement; stock accounting
// belongs to the administrative status workflow.
type Order struct {
	ID                int64
	CartID            int64
	Name              string
	Phone             string
	Status            Status
	InStockSubtracted bool
	CreatedAt         time.Time

	// Lines and Total are the cart contents captured inside the placement
	// transaction. They are not stored on the order row.
	Lines []Line
	Total decimal.Decimal
}

// Line is a priced cart line captured at placement time.
type Line struct {
	ProductID int64
	Title     string
	Price     decimal.Decimal
	Quantity  int
}

// Total returns price × quantity.
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func linesFromItems(items []cart.Item) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{
			ProductID: it.ProductID,
			Title:     it.Product.Title,
			Price:     it.Product.Price,
			Quantity:  it.Quantity,
		}
	}
	return lines
}

// Repository runs the placement transaction script.
type Repository interface {
	// WithinTx runs fn in a single database transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the statements placement needs inside its transaction.
type Tx interface {
	// LockCart loads the cart and locks its row until the transaction ends.
	LockCart(ctx context.Context, cartID int64) (*cart.Cart, error)
	CartItems(ctx context.Context, cartID int64) ([]cart.Item, error)
	// Create inserts o and fills its ID and CreatedAt.
	Create(ctx context.Context, o *Order) error
	SetCartStatus(ctx context.Context, cartID int64, status cart.Status) error
}

// Notifier announces placed orders to an external channel. Notify must not
// block the caller on delivery and has no error result: delivery is
// best-effort and at most once.
type Notifier interface {
	Notify(ctx context.Context, o *Order)
}
