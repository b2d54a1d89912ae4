package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"course-chatter/internal/chat"
	"course-chatter/internal/logger"
	"course-chatter/internal/validation"
)

const registerUsage = "Usage: /register Full Name; email@example.com; +1 555 0100"

const helpText = `Ask me anything about the course.

/start - begin a new conversation
/register Name; email; phone - sign up for the course
/reset - forget this conversation`

// ErrNoAdmin is returned when a report is sent without ADMIN_USER configured.
var ErrNoAdmin = errors.New("telegram admin user is not configured")

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := userKey(msg.From.ID)
	ctx = logger.WithFields(ctx, logrus.Fields{"user_id": userID, "command": msg.Command()})

	switch msg.Command() {
	case "start":
		reply, err := b.svc.Start(ctx, userID)
		if err != nil {
			b.replyError(ctx, msg.Chat.ID, err)
			return
		}
		b.sendWithReset(msg.Chat.ID, reply.Text)
	case "help":
		b.sendMessage(msg.Chat.ID, helpText)
	case "reset":
		if err := b.svc.Reset(ctx, userID); err != nil {
			b.replyError(ctx, msg.Chat.ID, err)
			return
		}
		b.sendMessage(msg.Chat.ID, "Conversation cleared")
	case "register":
		req, ok := parseRegistration(msg.CommandArguments())
		if !ok {
			b.sendMessage(msg.Chat.ID, registerUsage)
			return
		}
		req.UserID = userID
		res, err := b.svc.Register(ctx, req)
		if err != nil {
			b.replyError(ctx, msg.Chat.ID, err)
			return
		}
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("%s\n\nRegistration ID: %s", res.Message, res.ID))
	case "report":
		b.handleReportCommand(ctx, msg)
	default:
		b.sendMessage(msg.Chat.ID, helpText)
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if strings.TrimSpace(msg.Text) == "" {
		return
	}
	userID := userKey(msg.From.ID)
	ctx = logger.WithFields(ctx, logrus.Fields{"user_id": userID})
	logger.Debugf(ctx, "Incoming message from @%s", msg.From.UserName)

	reply, err := b.svc.Chat(ctx, userID, msg.Text)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	b.sendWithReset(msg.Chat.ID, reply.Text)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Data != resetCmd || cb.Message == nil {
		return
	}
	if err := b.svc.Reset(ctx, userKey(cb.From.ID)); err != nil {
		logger.Warnf(ctx, "failed to reset context: %v", err)
		return
	}
	b.sendMessage(cb.Message.Chat.ID, "Conversation cleared")
}

// handleReportCommand lets the admin pull the daily report on demand.
func (b *Bot) handleReportCommand(ctx context.Context, msg *tgbotapi.Message) {
	if b.adminUserID == 0 || msg.From.ID != b.adminUserID {
		b.sendMessage(msg.Chat.ID, "❌ This command is available to the administrator only.")
		return
	}
	if b.reportFunc == nil {
		b.sendMessage(msg.Chat.ID, "Reports are not enabled.")
		return
	}
	report, err := b.reportFunc(ctx)
	if err != nil {
		logger.Errorf(ctx, "❌ Report generation failed: %v", err)
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("❌ Report generation failed: %v", err))
		return
	}
	b.sendMessage(msg.Chat.ID, report)
}

// SetReportFunction provides the text for /report.
func (b *Bot) SetReportFunction(f func(ctx context.Context) (string, error)) {
	b.reportFunc = f
}

// SendReport delivers text to the configured admin.
func (b *Bot) SendReport(_ context.Context, text string) error {
	if b.adminUserID == 0 {
		return ErrNoAdmin
	}
	if _, err := b.s.Send(tgbotapi.NewMessage(b.adminUserID, text)); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}

func (b *Bot) replyError(ctx context.Context, chatID int64, err error) {
	if validation.IsValidation(err) {
		b.sendMessage(chatID, "⚠️ "+err.Error())
		return
	}
	logger.Errorf(ctx, "request failed: %v", err)
	b.sendMessage(chatID, "Sorry, something went wrong.")
}

// parseRegistration splits "name; email; phone".
func parseRegistration(args string) (chat.RegisterRequest, bool) {
	parts := strings.Split(args, ";")
	if len(parts) != 3 {
		return chat.RegisterRequest{}, false
	}
	return chat.RegisterRequest{
		Name:  strings.TrimSpace(parts[0]),
		Email: strings.TrimSpace(parts[1]),
		Phone: strings.TrimSpace(parts[2]),
	}, true
}
