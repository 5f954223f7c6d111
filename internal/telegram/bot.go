package telegram

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the subset of *tgbotapi.BotAPI used by this package.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// NewBotAPI connects to Telegram with the bot token.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return api, nil
}

// Notifier delivers plain text progress messages. It implements domain.Notifier.
type Notifier struct {
	api    Sender
	logger *slog.Logger
}

func NewNotifier(api Sender) *Notifier {
	return &Notifier{
		api:    api,
		logger: slog.Default().With(slog.String("module", "telegram")),
	}
}

// Notify is fire-and-forget: delivery failures are only logged.
func (n *Notifier) Notify(dest int64, text string) {
	n.send(tgbotapi.NewMessage(dest, text))
}

func (n *Notifier) send(msg tgbotapi.MessageConfig) {
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Warn("Failed to send message", slog.Int64("chat_id", msg.ChatID), slog.Any("error", err))
	}
}

func (n *Notifier) sendWithMarkup(dest int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(dest, text)
	msg.ReplyMarkup = markup
	n.send(msg)
}
