package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
)

const (
	msgWelcome = "Hi! This bot sends study reminders for your JLPT N1 deck.\n\n" +
		"Open Settings → Reminders in the app and press \"Link Telegram\" to connect this chat."
	msgHelp = "/start <code> links this chat to your account.\n" +
		"Reminders are configured in the app."
	msgLinked         = "Done! Reminders will be sent to this chat."
	msgLinkInvalid    = "This link code is invalid or has expired. Create a new one in the app."
	msgChatTaken      = "This chat is already linked to another account."
	msgInternalError  = "Something went wrong. Please try again later."
	msgUnknownCommand = "Unknown command. Try /help."
)

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

func newPlainMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, text)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// buildReminderNotification renders the reminder text in MarkdownV2.
func buildReminderNotification(p entities.ReminderPayload) string {
	var sb strings.Builder

	switch {
	case p.DueToday > 0:
		sb.WriteString(bold(fmt.Sprintf("📚 %s due", plural(p.DueToday, "item"))))
	case p.NewAvailable > 0:
		sb.WriteString(bold("📚 Time to learn something new"))
	default:
		sb.WriteString(bold("📚 Nothing due right now"))
	}
	sb.WriteString("\n\n")

	if p.NewAvailable > 0 {
		sb.WriteString(md(fmt.Sprintf("🆕 New today: %d\n", p.NewAvailable)))
	}
	sb.WriteString(md(fmt.Sprintf("✅ Mastered: %d\n", p.Mastered)))
	if p.StreakDays > 0 {
		sb.WriteString(md(fmt.Sprintf("🔥 Streak: %s", plural(p.StreakDays, "day"))))
	}

	return strings.TrimRight(sb.String(), "\n")
}
