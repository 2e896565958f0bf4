// Package order implements the order aggregate and the service that places an
// order from a cart.
package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/fault"
)

// Sentinel errors for order validation.
var (
	ErrNameRequired  = &fault.ValidationError{Field: "name", Reason: "is required"}
	ErrPhoneRequired = &fault.ValidationError{Field: "phone", Reason: "is required"}
	ErrCartRequired  = &fault.ValidationError{Field: "cart", Reason: "is required"}
)

// MaxFieldLength bounds the customer name and phone of an order.
const MaxFieldLength = 250

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	CartID int64
	Name   string
	Phone  string
}

func (r *PlaceOrderRequest) normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	switch {
	case r.CartID <= 0:
		return ErrCartRequired
	case r.Name == "":
		return ErrNameRequired
	case r.Phone == "":
		return ErrPhoneRequired
	}
	if err := fault.MaxLength("name", r.Name, MaxFieldLength); err != nil {
		return err
	}
	return fault.MaxLength("phone", r.Phone, MaxFieldLength)
}

// Service encapsulates order placement business logic.
type Service struct {
	orders   Repository
	notifier Notifier

	tracer trace.Tracer
	placed metric.Int64Counter
}

// NewService creates an order Service.
func NewService(
	orders Repository,
	notifier Notifier,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Service, error) {
	placed, err := mp.Meter("storefront/order").Int64Counter("shop.orders.placed",
		metric.WithDescription("Orders placed successfully"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders counter")
	}
	return &Service{
		orders:   orders,
		notifier: notifier,
		tracer:   tp.Tracer("storefront/order"),
		placed:   placed,
	}, nil
}

// PlaceOrder finalizes a cart into an order.
//
// Within one transaction it locks the cart, rejects missing, inactive or empty
// carts, inserts the order and deactivates the cart. The notifier is invoked
// only after commit and its outcome never affects the result.
//
// Placing the same cart twice fails with cart.ErrInactive.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder",
		trace.WithAttributes(attribute.Int64("cart.id", req.CartID)),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	if err := req.normalize(); err != nil {
		return nil, err
	}

	var placed *Order
	err := s.orders.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		c, err := tx.LockCart(ctx, req.CartID)
		if err != nil {
			return errors.Wrap(err, "lock cart")
		}
		if !c.Active() {
			return cart.ErrInactive
		}

		items, err := tx.CartItems(ctx, c.ID)
		if err != nil {
			return errors.Wrap(err, "load cart items")
		}
		if len(items) == 0 {
			return cart.ErrEmptyCart
		}

		o := &Order{
			CartID: c.ID,
			Name:   req.Name,
			Phone:  req.Phone,
			Status: StatusInModeration,
			Lines:  linesFromItems(items),
			Total:  cart.TotalPrice(items),
		}
		if err := tx.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}
		if err := tx.SetCartStatus(ctx, c.ID, cart.StatusInactive); err != nil {
			return errors.Wrap(err, "deactivate cart")
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", placed.ID))
	s.placed.Add(ctx, 1)
	s.notifier.Notify(ctx, placed)

	return placed, nil
}
