package telegram

import (
	"errors"

	"gopkg.in/telebot.v3"
)

// ErrRecipientUnreachable marks delivery failures that will not recover by
// retrying: the user blocked the bot, deleted the account or the chat is gone.
var ErrRecipientUnreachable = errors.New("recipient unreachable")

// Client defines an interface for sending messages via a Telegram bot.
// This helps in decoupling the application logic from the specific bot library.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
