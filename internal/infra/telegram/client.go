// internal/infra/telegram/client.go
package telegram

import (
	"errors"
	"fmt"
	"strings"

	domainTelegram "outage_notification_bot/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified recipient. Failures that
// retrying cannot fix are wrapped in domainTelegram.ErrRecipientUnreachable.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	_, err := tba.bot.Send(telebot.ChatID(recipientChatID), text, options)
	return classifySendError(err)
}

func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	if isUnreachable(err) {
		return fmt.Errorf("%w: %w", domainTelegram.ErrRecipientUnreachable, err)
	}
	return err
}

// isUnreachable covers blocked bots, deactivated users, kicked bots, chats the
// bot may not initiate and chats that no longer exist.
func isUnreachable(err error) bool {
	if errors.Is(err, telebot.ErrChatNotFound) {
		return true
	}
	var apiErr *telebot.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 403 {
			return true
		}
		return strings.Contains(strings.ToLower(apiErr.Description), "chat not found")
	}
	// Descriptions telebot does not know arrive as "telegram: <desc> (<code>)".
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.HasPrefix(msg, "telegram: forbidden") || strings.HasSuffix(msg, "(403)")
}
