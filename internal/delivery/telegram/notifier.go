package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
)

// Notifier delivers reminders to linked chats.
type Notifier struct {
	bot    BotAPI
	appURL string // optional "Open app" button target
}

func NewNotifier(bot BotAPI, appURL string) *Notifier {
	return &Notifier{bot: bot, appURL: appURL}
}

// SendReminder implements service.ReminderNotifier.
func (n *Notifier) SendReminder(ctx context.Context, chatID int64, payload entities.ReminderPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := newMessage(chatID, buildReminderNotification(payload))
	if n.appURL != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("Start studying", n.appURL),
			),
		)
	}

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send reminder to chat %d: %w", chatID, err)
	}
	return nil
}
