// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"

	"outage_notification_bot/internal/domain/schedule"
	"outage_notification_bot/internal/domain/subscription"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// SubscriberOps is the application surface the bot handlers drive.
type SubscriberOps interface {
	Start(ctx context.Context, subscriberID int64) (*subscription.Subscription, error)
	SelectGroup(ctx context.Context, subscriberID int64, group schedule.GroupID) (*subscription.Subscription, error)
	ToggleNotifications(ctx context.Context, subscriberID int64) (*subscription.Subscription, error)
	Settings(ctx context.Context, subscriberID int64) (*subscription.Subscription, error)
	StatusNow(ctx context.Context, subscriberID int64) (schedule.Snapshot, error)
	DaySchedule(ctx context.Context, subscriberID int64) (string, error)
}

// Handlers holds the dependencies of every bot handler.
type Handlers struct {
	ctx context.Context
	ops SubscriberOps
	log *logrus.Entry
}

func NewHandlers(ctx context.Context, ops SubscriberOps, baseLogger *logrus.Entry) *Handlers {
	return &Handlers{ctx: ctx, ops: ops, log: baseLogger}
}

// Register wires commands and inline-button callbacks into b.
func (h *Handlers) Register(b *telebot.Bot) {
	b.Handle("/start", h.onStart)
	b.Handle("/help", h.onHelp)

	b.Handle(&telebot.Btn{Unique: uniqueQueue}, h.onQueueChosen)
	b.Handle(&telebot.Btn{Unique: uniqueSubQueue}, h.onSubQueueChosen)
	b.Handle(&telebot.Btn{Unique: uniqueBackToQueue}, h.onBackToQueue)
	b.Handle(&telebot.Btn{Unique: uniqueStatusNow}, h.onStatusNow)
	b.Handle(&telebot.Btn{Unique: uniqueScheduleDay}, h.onScheduleDay)
	b.Handle(&telebot.Btn{Unique: uniqueToggleNotify}, h.onToggleNotify)
	b.Handle(&telebot.Btn{Unique: uniqueChangeSettings}, h.onChangeSettings)
}

func (h *Handlers) logFor(c telebot.Context, handler string) *logrus.Entry {
	return h.log.WithFields(logrus.Fields{"handler": handler, "sender_id": c.Sender().ID})
}

func (h *Handlers) onStart(c telebot.Context) error {
	logCtx := h.logFor(c, "/start")
	logCtx.Info("Processing /start command")

	sub, err := h.ops.Start(h.ctx, c.Sender().ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to register subscriber")
		return c.Send(textInternalError)
	}
	if sub.Group.IsZero() {
		return c.Send(textChooseQueue, queueKeyboard())
	}
	return c.Send(textWelcomeBack(sub), mainKeyboard(sub))
}

func (h *Handlers) onHelp(c telebot.Context) error {
	h.logFor(c, "/help").Info("Processing /help command")
	return c.Send(textHelp)
}
