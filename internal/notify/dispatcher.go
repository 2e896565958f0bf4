package notify

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/order"
)

var _ order.Notifier = (*Dispatcher)(nil)

// DispatcherConfig holds the rendering and delivery settings.
type DispatcherConfig struct {
	// Currency is appended to the order total in the caption.
	Currency string
	// AdminURL is the base of the admin link, e.g.
	// "https://shop.example/admin/product/order". Empty omits the link.
	AdminURL string
	// Timeout bounds a single delivery attempt.
	Timeout time.Duration
}

// Dispatcher delivers order announcements asynchronously.
type Dispatcher struct {
	sender Sender
	cfg    DispatcherConfig
	failed metric.Int64Counter

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher sending through sender.
func NewDispatcher(sender Sender, cfg DispatcherConfig, mp metric.MeterProvider) (*Dispatcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	failed, err := mp.Meter("storefront/notify").Int64Counter("shop.notifications.failed",
		metric.WithDescription("Order notifications that could not be delivered"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create failures counter")
	}
	return &Dispatcher{
		sender: sender,
		cfg:    cfg,
		failed: failed,
	}, nil
}

// Notify schedules delivery of o and returns immediately. The delivery keeps
// the values of ctx (logger, trace) but not its cancellation. Orders placed
// after Close are logged and dropped.
func (d *Dispatcher) Notify(ctx context.Context, o *order.Order) {
	snapshot := *o
	ctx = context.WithoutCancel(ctx)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.failed.Add(ctx, 1)
		zctx.From(ctx).Warn("Order notification dropped, dispatcher closed", zap.Int64("order_id", snapshot.ID))
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()

		lg := zctx.From(ctx).With(zap.Int64("order_id", snapshot.ID))
		if err := d.deliver(ctx, &snapshot); err != nil {
			d.failed.Add(ctx, 1)
			lg.Warn("Order notification failed", zap.Error(err))
			return
		}
		lg.Debug("Order notification delivered")
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, o *order.Order) error {
	doc, err := Report(o)
	if err != nil {
		return &DeliveryError{OrderID: o.ID, Err: errors.Wrap(err, "render report")}
	}
	msg := Message{
		Caption:  Caption(o, d.cfg.Currency, d.cfg.AdminURL),
		FileName: ReportName(o),
		Document: doc,
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		return &DeliveryError{OrderID: o.ID, Err: err}
	}
	return nil
}

// Close stops accepting deliveries and blocks until in-flight ones finish or
// ctx is done. It may be called again to keep waiting.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
