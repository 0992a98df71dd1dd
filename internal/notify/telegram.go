package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
)

// TelegramNotifier posts a notification to one Telegram chat via a bot
// token, grounded in the teacher's internal/channels/telegram.Adapter —
// same bot.New(token) construction and SendMessage call, narrowed to
// outbound-only use.
type TelegramNotifier struct {
	client *bot.Bot
	chatID string
}

// NewTelegramNotifier builds a TelegramNotifier posting to chatID using
// botToken. It returns an error if the underlying bot client cannot be
// constructed from the token.
func NewTelegramNotifier(botToken, chatID string) (*TelegramNotifier, error) {
	client, err := bot.New(botToken)
	if err != nil {
		return nil, fmt.Errorf("construct telegram bot client: %w", err)
	}
	return &TelegramNotifier{client: client, chatID: chatID}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, event Event) error {
	_, err := n.client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   formatText(event),
	})
	return err
}
