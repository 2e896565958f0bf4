package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (cart_id, name, phone, status, in_stock_subtracted)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	setCartStatusSQL = `UPDATE carts SET status = $2, updated_at = now() WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	db DB
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithinTx runs fn in a transaction. fn's error is returned unchanged.
func (r *OrderRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, orderTx{tx: tx})
	})
}

type orderTx struct {
	tx pgx.Tx
}

// LockCart takes an update lock on the cart row. Pending item mutations,
// which hold share locks, finish first.
func (t orderTx) LockCart(ctx context.Context, cartID int64) (*cart.Cart, error) {
	return getCart(ctx, t.tx, lockCartUpdateSQL, cartID)
}

func (t orderTx) CartItems(ctx context.Context, cartID int64) ([]cart.Item, error) {
	return listItems(ctx, t.tx, cartID)
}

func (t orderTx) Create(ctx context.Context, o *order.Order) error {
	err := t.tx.QueryRow(ctx, createOrderSQL,
		o.CartID, o.Name, o.Phone, string(o.Status), o.InStockSubtracted,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating order for cart %d: %w", o.CartID, err)
	}
	return nil
}

func (t orderTx) SetCartStatus(ctx context.Context, cartID int64, status cart.Status) error {
	tag, err := t.tx.Exec(ctx, setCartStatusSQL, cartID, string(status))
	if err != nil {
		return fmt.Errorf("setting cart %d status: %w", cartID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("setting cart %d status: %d rows affected", cartID, tag.RowsAffected())
	}
	return nil
}
