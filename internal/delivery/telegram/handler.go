package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
)

// Commands is the command menu registered with SetMyCommands.
func Commands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Link this chat to your account"},
		{Command: "help", Description: "Help"},
	}
}

type Handler struct {
	bot    BotAPI
	logger *zap.Logger
	links  LinkService
}

func NewHandler(bot BotAPI, logger *zap.Logger, links LinkService) *Handler {
	return &Handler{bot: bot, logger: logger, links: links}
}

// Run polls for updates until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	defer h.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	h.logger.Debug("update received",
		zap.Int64("chat_id", chatID),
		zap.String("text", update.Message.Text),
	)

	if !update.Message.IsCommand() {
		h.send(newPlainMessage(chatID, msgHelp))
		return
	}

	switch update.Message.Command() {
	case "start":
		h.handleStart(ctx, chatID, strings.TrimSpace(update.Message.CommandArguments()))
	case "help":
		h.send(newPlainMessage(chatID, msgHelp))
	default:
		h.send(newPlainMessage(chatID, msgUnknownCommand))
	}
}

func (h *Handler) handleStart(ctx context.Context, chatID int64, code string) {
	if code == "" {
		h.send(newPlainMessage(chatID, msgWelcome))
		return
	}

	_, err := h.links.Link(ctx, code, chatID)
	switch {
	case err == nil:
		h.send(newPlainMessage(chatID, msgLinked))
	case errors.Is(err, repository.ErrLinkNotFound):
		h.send(newPlainMessage(chatID, msgLinkInvalid))
	case errors.Is(err, repository.ErrChatAlreadyLinked):
		h.send(newPlainMessage(chatID, msgChatTaken))
	default:
		h.logger.Error("failed to link chat",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		h.send(newPlainMessage(chatID, msgInternalError))
	}
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
}
