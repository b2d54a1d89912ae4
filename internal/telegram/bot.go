package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"course-chatter/internal/chat"
	"course-chatter/internal/logger"
)

const resetCmd = "reset_ctx"

// messenger is the part of *tgbotapi.BotAPI the handlers reply through.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot is a Telegram frontend for the same chat service the HTTP API uses.
type Bot struct {
	api         *tgbotapi.BotAPI
	s           messenger
	svc         *chat.Service
	adminUserID int64
	reportFunc  func(ctx context.Context) (string, error)
}

func New(botToken string, svc *chat.Service, adminUserID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:         api,
		s:           api,
		svc:         svc,
		adminUserID: adminUserID,
	}, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	logger.Infof(ctx, "🤖 Telegram bot @%s is polling for updates", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate ignores updates without a sender, such as channel posts
// and some service messages.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		if update.Message.From == nil {
			return
		}
		if update.Message.IsCommand() {
			b.handleCommand(ctx, update.Message)
		} else {
			b.handleIncomingMessage(ctx, update.Message)
		}
		return
	}
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

// userKey keeps Telegram conversations apart from HTTP user ids.
func userKey(id int64) string {
	return "tg:" + strconv.FormatInt(id, 10)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		logger.Warnf(context.Background(), "failed to send message: %v", err)
	}
}

func (b *Bot) sendWithReset(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Reset conversation", resetCmd),
		),
	)
	if _, err := b.s.Send(msg); err != nil {
		logger.Warnf(context.Background(), "failed to send message: %v", err)
	}
}
