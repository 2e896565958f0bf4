package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/fault"
)

const (
	cartColumns = `id, fingerprint, status, created_at, updated_at`

	createCartSQL = `INSERT INTO carts (fingerprint) VALUES ($1) RETURNING ` + cartColumns

	getCartSQL = `SELECT ` + cartColumns + ` FROM carts WHERE id = $1`

	listCartsSQL = `SELECT ` + cartColumns + ` FROM carts
		WHERE fingerprint = $1 ORDER BY created_at DESC, id DESC`

	lockCartShareSQL = `SELECT ` + cartColumns + ` FROM carts WHERE id = $1 FOR SHARE`

	lockCartUpdateSQL = `SELECT ` + cartColumns + ` FROM carts WHERE id = $1 FOR UPDATE`

	lockItemCartSQL = `SELECT c.id, c.status FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE ci.id = $1 FOR SHARE OF c`

	activeProductExistsSQL = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND is_active)`

	upsertCartItemSQL = `INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING id`

	updateCartItemSQL = `UPDATE cart_items SET quantity = $2, updated_at = now() WHERE id = $1`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE id = $1`

	touchCartSQL = `UPDATE carts SET updated_at = now() WHERE id = $1`

	itemSelect = `SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		p.title, p.price, p.sale_price
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id`

	getCartItemSQL = itemSelect + ` WHERE ci.id = $1`

	listCartItemsSQL = itemSelect + ` WHERE ci.cart_id = $1 ORDER BY ci.created_at DESC, ci.id DESC`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
//
// Item mutations hold a share lock on the cart row, so they serialize against
// order placement, which takes an update lock.
type CartRepository struct {
	db DB
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(db DB) *CartRepository {
	return &CartRepository{db: db}
}

// Create opens an active cart for fingerprint.
func (r *CartRepository) Create(ctx context.Context, fingerprint string) (*cart.Cart, error) {
	rows, err := r.db.Query(ctx, createCartSQL, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("creating cart: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		return nil, fmt.Errorf("creating cart: %w", err)
	}
	return &c, nil
}

// GetByID returns a cart by id.
func (r *CartRepository) GetByID(ctx context.Context, id int64) (*cart.Cart, error) {
	return getCart(ctx, r.db, getCartSQL, id)
}

// ListByFingerprint returns the carts of fingerprint, newest first.
func (r *CartRepository) ListByFingerprint(ctx context.Context, fingerprint string) ([]cart.Cart, error) {
	rows, err := r.db.Query(ctx, listCartsSQL, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("listing carts: %w", err)
	}
	return pgx.CollectRows(rows, scanCart)
}

// AddItem inserts a line or increments the existing line for the product.
func (r *CartRepository) AddItem(ctx context.Context, cartID, productID int64, quantity int) (*cart.Item, error) {
	var item *cart.Item
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		c, err := getCart(ctx, tx, lockCartShareSQL, cartID)
		if err != nil {
			return err
		}
		if !c.Active() {
			return cart.ErrInactive
		}

		var exists bool
		if err := tx.QueryRow(ctx, activeProductExistsSQL, productID).Scan(&exists); err != nil {
			return fmt.Errorf("checking product %d: %w", productID, err)
		}
		if !exists {
			return fault.NotFound("product", productID)
		}

		var itemID int64
		if err := tx.QueryRow(ctx, upsertCartItemSQL, cartID, productID, quantity).Scan(&itemID); err != nil {
			if isPgError(err, codeNumericOutOfRange) {
				return cart.ErrInvalidQuantity
			}
			return fmt.Errorf("adding product %d to cart %d: %w", productID, cartID, err)
		}
		if _, err := tx.Exec(ctx, touchCartSQL, cartID); err != nil {
			return fmt.Errorf("touching cart %d: %w", cartID, err)
		}

		item, err = getItem(ctx, tx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemQuantity sets the quantity of a line.
func (r *CartRepository) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (*cart.Item, error) {
	var item *cart.Item
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		cartID, status, err := lockItemCart(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if cartID == 0 {
			return fault.NotFound("cart item", itemID)
		}
		if status != cart.StatusActive {
			return cart.ErrInactive
		}

		if _, err := tx.Exec(ctx, updateCartItemSQL, itemID, quantity); err != nil {
			return fmt.Errorf("updating cart item %d: %w", itemID, err)
		}
		if _, err := tx.Exec(ctx, touchCartSQL, cartID); err != nil {
			return fmt.Errorf("touching cart %d: %w", cartID, err)
		}

		item, err = getItem(ctx, tx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem deletes a line. A missing line is not an error.
func (r *CartRepository) RemoveItem(ctx context.Context, itemID int64) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		cartID, status, err := lockItemCart(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if cartID == 0 {
			return nil
		}
		if status != cart.StatusActive {
			return cart.ErrInactive
		}

		if _, err := tx.Exec(ctx, deleteCartItemSQL, itemID); err != nil {
			return fmt.Errorf("deleting cart item %d: %w", itemID, err)
		}
		if _, err := tx.Exec(ctx, touchCartSQL, cartID); err != nil {
			return fmt.Errorf("touching cart %d: %w", cartID, err)
		}
		return nil
	})
}

// ListItems returns the lines of a cart, newest first.
func (r *CartRepository) ListItems(ctx context.Context, cartID int64) ([]cart.Item, error) {
	return listItems(ctx, r.db, cartID)
}

func getCart(ctx context.Context, q querier, query string, id int64) (*cart.Cart, error) {
	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting cart %d: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("cart", id)
		}
		return nil, fmt.Errorf("getting cart %d: %w", id, err)
	}
	return &c, nil
}

// lockItemCart share-locks the cart owning itemID. It returns a zero cart id
// when the item does not exist.
func lockItemCart(ctx context.Context, q querier, itemID int64) (int64, cart.Status, error) {
	var (
		cartID int64
		status string
	)
	err := q.QueryRow(ctx, lockItemCartSQL, itemID).Scan(&cartID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", nil
		}
		return 0, "", fmt.Errorf("locking cart of item %d: %w", itemID, err)
	}
	return cartID, cart.Status(status), nil
}

func getItem(ctx context.Context, q querier, itemID int64) (*cart.Item, error) {
	rows, err := q.Query(ctx, getCartItemSQL, itemID)
	if err != nil {
		return nil, fmt.Errorf("getting cart item %d: %w", itemID, err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("cart item", itemID)
		}
		return nil, fmt.Errorf("getting cart item %d: %w", itemID, err)
	}
	return &it, nil
}

func listItems(ctx context.Context, q querier, cartID int64) ([]cart.Item, error) {
	rows, err := q.Query(ctx, listCartItemsSQL, cartID)
	if err != nil {
		return nil, fmt.Errorf("listing items of cart %d: %w", cartID, err)
	}
	return pgx.CollectRows(rows, scanItem)
}

func scanCart(row pgx.CollectableRow) (cart.Cart, error) {
	var (
		c      cart.Cart
		status string
	)
	err := row.Scan(&c.ID, &c.Fingerprint, &status, &c.CreatedAt, &c.UpdatedAt)
	c.Status = cart.Status(status)
	return c, err
}

func scanItem(row pgx.CollectableRow) (cart.Item, error) {
	var (
		it    cart.Item
		price decimal.Decimal
		sale  decimal.NullDecimal
	)
	err := row.Scan(
		&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt,
		&it.Product.Title, &price, &sale,
	)
	it.Product.Price = price
	it.Product.SalePrice = sale
	return it, err
}
