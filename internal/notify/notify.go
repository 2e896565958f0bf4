// Package notify announces placed orders to an external chat channel.
//
// A Dispatcher implements order.Notifier: it renders a caption and a
// spreadsheet report for the order and hands them to a Sender on a separate
// goroutine. Delivery is attempted once; failures are logged and counted,
// never returned to the caller.
package notify

import (
	"context"
	"fmt"
)

// Message is a rendered order announcement.
type Message struct {
	Caption  string
	FileName string
	Document []byte
}

// Sender delivers a message to the channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError reports a failed announcement of an order.
type DeliveryError struct {
	OrderID int64
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver order %d notification: %v", e.OrderID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
