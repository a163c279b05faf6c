// Package notify forwards unexpected faults to an operator Telegram chat.
// The pipeline itself never retries or recovers these; it only surfaces them.
package notify

import (
	"fmt"
	"log/slog"

	"github.com/PaulSonOfLars/gotgbot/v2"
)

type Notifier struct {
	bot    *gotgbot.Bot
	chatID int64
}

func New(token string, chatID int64) (*Notifier, error) {
	bot, err := gotgbot.NewBot(token, nil)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// Alert sends a fault report to the operator chat. Safe on a nil receiver
// so callers need no guard when the notifier is not configured. Delivery is
// best-effort; a failed send is only logged.
func (n *Notifier) Alert(source, user string, err error) {
	if n == nil {
		return
	}
	text := fmt.Sprintf("⚠️ Move failed\n\nSource: %s\nUser: %s\nError: %v", source, user, err)
	if _, sendErr := n.bot.SendMessage(n.chatID, text, nil); sendErr != nil {
		slog.Error("Failed to send operator alert", slog.Any("error", sendErr))
	}
}
