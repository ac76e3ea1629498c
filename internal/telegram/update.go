package telegram

import "github.com/go-telegram/bot/models"

// CallbackChatID returns the chat id of the message a callback query
// originated from, handling messages Telegram no longer exposes in full.
func CallbackChatID(cb *models.CallbackQuery) int64 {
	if cb == nil {
		return 0
	}

	switch cb.Message.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if cb.Message.Message == nil {
			return 0
		}
		return cb.Message.Message.Chat.ID
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if cb.Message.InaccessibleMessage == nil {
			return 0
		}
		return cb.Message.InaccessibleMessage.Chat.ID
	default:
		return 0
	}
}

// CallbackMessageID returns the id of the message a callback query
// originated from, or 0 when the message is unavailable.
func CallbackMessageID(cb *models.CallbackQuery) int {
	if cb == nil {
		return 0
	}

	switch cb.Message.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if cb.Message.Message == nil {
			return 0
		}
		return cb.Message.Message.ID
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if cb.Message.InaccessibleMessage == nil {
			return 0
		}
		return cb.Message.InaccessibleMessage.MessageID
	default:
		return 0
	}
}
