package notify

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// LogSender writes announcements to the log instead of a chat. It is used
// when no bot token is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	zctx.From(ctx).Info("Order notification",
		zap.String("file", msg.FileName),
		zap.Int("size", len(msg.Document)),
		zap.String("caption", msg.Caption),
	)
	return nil
}
