package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	domainTelegram "outage_notification_bot/internal/domain/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

func TestClassifySendError(t *testing.T) {
	testCases := []struct {
		name        string
		err         error
		unreachable bool
	}{
		{name: "nil", err: nil},
		{name: "blocked by user", err: telebot.ErrBlockedByUser, unreachable: true},
		{name: "user deactivated", err: telebot.ErrUserIsDeactivated, unreachable: true},
		{name: "kicked from group", err: telebot.ErrKickedFromGroup, unreachable: true},
		{name: "not started", err: telebot.ErrNotStartedByUser, unreachable: true},
		{name: "chat not found", err: telebot.ErrChatNotFound, unreachable: true},
		{name: "unknown 403", err: telebot.NewError(403, "Forbidden: something new"), unreachable: true},
		{name: "wrapped 403", err: fmt.Errorf("send: %w", telebot.ErrBlockedByUser), unreachable: true},
		{name: "plain forbidden", err: fmt.Errorf("telegram: Forbidden: bot can't send messages to bots (403)"), unreachable: true},
		{name: "plain bad request", err: fmt.Errorf("telegram: Bad Request: message is too long (400)")},
		{name: "bad request", err: telebot.ErrEmptyText},
		{name: "network", err: errors.New("dial tcp: i/o timeout")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifySendError(tc.err)
			if tc.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.err)
			assert.Equal(t, tc.unreachable, errors.Is(got, domainTelegram.ErrRecipientUnreachable))
		})
	}
}

func TestSendMessage_UnknownForbiddenIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: something new"}`))
	}))
	defer srv.Close()

	bot, err := telebot.NewBot(telebot.Settings{Token: "test", URL: srv.URL, Offline: true})
	require.NoError(t, err)

	err = NewTelebotAdapter(bot).SendMessage(42, "hello", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainTelegram.ErrRecipientUnreachable)
}
