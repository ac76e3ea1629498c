// Package telegram hosts the outbound Bot API gateway and update helpers.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"tg_earning_bot/internal/config"
	"tg_earning_bot/internal/logging"
)

// callTimeout bounds every outbound call to the Bot API.
const callTimeout = 10 * time.Second

// api is the subset of bot.Bot behavior the gateway relies on.
type api interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	SetWebhook(ctx context.Context, params *bot.SetWebhookParams) (bool, error)
	DeleteWebhook(ctx context.Context, params *bot.DeleteWebhookParams) (bool, error)
}

// createBot is overridable for tests.
var createBot = func(token string, options ...bot.Option) (api, error) {
	return bot.New(token, options...)
}

// Gateway sends, edits, and acknowledges messages through the Bot API.
// Every operation is best effort: failures are logged and reported as
// booleans so one failed call never aborts update handling.
type Gateway struct {
	api    api
	logger *logrus.Entry
}

// NewGateway initializes the Bot API client. getMe is skipped because the
// gateway serves webhook traffic and must boot even on a placeholder token.
func NewGateway(cfg config.Config, logger *logrus.Entry) (*Gateway, error) {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, errors.New("bot token is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	tgBot, err := createBot(cfg.BotToken, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("init telegram bot client: %w", err)
	}

	return &Gateway{
		api:    tgBot,
		logger: logger,
	}, nil
}

// SendMessage delivers an HTML text message, optionally with an inline
// keyboard attached.
func (g *Gateway) SendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) bool {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := g.api.SendMessage(callCtx, params); err != nil {
		g.logger.WithFields(logging.Fields{
			"event":   "send_message_failed",
			"chat_id": chatID,
		}).WithError(err).Error("send message failed")
		return false
	}

	return true
}

// EditMessage replaces the text and keyboard of a previously sent message so
// the chat reads as one evolving home screen instead of an accumulating log.
func (g *Gateway) EditMessage(ctx context.Context, chatID int64, messageID int, text string, keyboard *models.InlineKeyboardMarkup) bool {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := g.api.EditMessageText(callCtx, params); err != nil {
		g.logger.WithFields(logging.Fields{
			"event":      "edit_message_failed",
			"chat_id":    chatID,
			"message_id": messageID,
		}).WithError(err).Error("edit message failed")
		return false
	}

	return true
}

// AnswerCallback acknowledges a button press so the client clears its
// loading indicator. Fire and forget; failures are only logged.
func (g *Gateway) AnswerCallback(ctx context.Context, callbackQueryID string) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	if _, err := g.api.AnswerCallbackQuery(callCtx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackQueryID,
	}); err != nil {
		g.logger.WithFields(logging.Fields{
			"event":       "answer_callback_failed",
			"callback_id": callbackQueryID,
		}).WithError(err).Error("answer callback failed")
	}
}

// SetWebhook points Telegram's push delivery at the given URL.
func (g *Gateway) SetWebhook(ctx context.Context, url string) bool {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	ok, err := g.api.SetWebhook(callCtx, &bot.SetWebhookParams{URL: url})
	if err != nil || !ok {
		g.logger.WithFields(logging.Fields{
			"event": "set_webhook_failed",
			"url":   url,
		}).WithError(err).Error("failed to set webhook")
		return false
	}

	g.logger.WithFields(logging.Fields{
		"event": "webhook_set",
		"url":   url,
	}).Info("webhook set successfully")

	return true
}

// DeleteWebhook stops push delivery.
func (g *Gateway) DeleteWebhook(ctx context.Context) bool {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	ok, err := g.api.DeleteWebhook(callCtx, &bot.DeleteWebhookParams{})
	if err != nil || !ok {
		g.logger.WithField("event", "delete_webhook_failed").WithError(err).Error("delete webhook failed")
		return false
	}

	g.logger.WithField("event", "webhook_deleted").Info("webhook deleted")

	return true
}

func (g *Gateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithTimeout(ctx, callTimeout)
}
