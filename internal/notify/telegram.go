package notify

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender posts the report as a document to a chat.
type TelegramSender struct {
	token    string
	endpoint string
	chatID   int64
	client   *http.Client
}

// NewTelegramSender creates a sender for the bot token and chat. An empty
// endpoint selects the public Bot API.
func NewTelegramSender(token string, chatID int64, endpoint string, client *http.Client) *TelegramSender {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &TelegramSender{
		token:    token,
		endpoint: endpoint,
		chatID:   chatID,
		client:   client,
	}
}

// Send uploads msg.Document with msg.Caption.
func (s *TelegramSender) Send(ctx context.Context, msg Message) error {
	// The bot is built per call so each request carries ctx; constructing it
	// through NewBotAPI would issue a getMe round trip.
	bot := &tgbotapi.BotAPI{
		Token:  s.token,
		Client: ctxClient{ctx: ctx, client: s.client},
	}
	bot.SetAPIEndpoint(s.endpoint)

	doc := tgbotapi.NewDocument(s.chatID, tgbotapi.FileBytes{
		Name:  msg.FileName,
		Bytes: msg.Document,
	})
	doc.Caption = msg.Caption

	if _, err := bot.Send(doc); err != nil {
		return errors.Wrap(err, "send document")
	}
	return nil
}

type ctxClient struct {
	ctx    context.Context
	client *http.Client
}

func (c ctxClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}
