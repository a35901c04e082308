package telegram

import (
	"errors"
	"strconv"
	"strings"

	"outage_notification_bot/internal/app"
	"outage_notification_bot/internal/domain/schedule"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// editOrAck edits the menu message in place. Telegram rejects edits that do
// not change anything; that case is answered with a short toast.
func editOrAck(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	err := c.Edit(text, markup)
	if err == nil {
		return c.Respond()
	}
	if isNotModified(err) {
		return c.Respond(&telebot.CallbackResponse{Text: textDataUpToDate})
	}
	return err
}

func isNotModified(err error) bool {
	return errors.Is(err, telebot.ErrSameMessageContent) ||
		strings.Contains(err.Error(), "message is not modified")
}

func (h *Handlers) onQueueChosen(c telebot.Context) error {
	logCtx := h.logFor(c, uniqueQueue)
	queue, err := strconv.Atoi(c.Data())
	if err != nil || queue < 1 || queue > schedule.MaxQueue {
		logCtx.WithField("data", c.Data()).Warn("Invalid queue callback data")
		return c.Respond(&telebot.CallbackResponse{Text: textUnknownQueueBtn})
	}
	return editOrAck(c, "✅ Очередь "+strconv.Itoa(queue)+" выбрана.\nТеперь выбери под-очередь:", subQueueKeyboard(queue))
}

func (h *Handlers) onSubQueueChosen(c telebot.Context) error {
	logCtx := h.logFor(c, uniqueSubQueue)
	group, err := schedule.ParseGroupID(c.Data())
	if err != nil {
		logCtx.WithError(err).WithField("data", c.Data()).Warn("Invalid sub-queue callback data")
		return c.Respond(&telebot.CallbackResponse{Text: textUnknownQueueBtn})
	}

	sub, err := h.ops.SelectGroup(h.ctx, c.Sender().ID, group)
	if err != nil {
		logCtx.WithError(err).Error("Failed to save group selection")
		return c.Respond(&telebot.CallbackResponse{Text: textInternalError, ShowAlert: true})
	}
	return editOrAck(c, textSettingsDone(sub), mainKeyboard(sub))
}

func (h *Handlers) onBackToQueue(c telebot.Context) error {
	return editOrAck(c, textChooseQueue, queueKeyboard())
}

func (h *Handlers) onChangeSettings(c telebot.Context) error {
	h.logFor(c, uniqueChangeSettings).Info("Restarting group selection")
	return editOrAck(c, textChooseQueue, queueKeyboard())
}

func (h *Handlers) onStatusNow(c telebot.Context) error {
	logCtx := h.logFor(c, uniqueStatusNow)

	snap, err := h.ops.StatusNow(h.ctx, c.Sender().ID)
	if err != nil {
		return h.respondError(c, err, logCtx.WithError(err))
	}
	sub, err := h.ops.Settings(h.ctx, c.Sender().ID)
	if err != nil {
		return h.respondError(c, err, logCtx.WithError(err))
	}
	logCtx.WithField("status", snap.CurrentStatus).Debug("Status requested")
	return editOrAck(c, snap.RenderedMessage, mainKeyboard(sub))
}

func (h *Handlers) onScheduleDay(c telebot.Context) error {
	logCtx := h.logFor(c, uniqueScheduleDay)

	text, err := h.ops.DaySchedule(h.ctx, c.Sender().ID)
	if err != nil {
		return h.respondError(c, err, logCtx.WithError(err))
	}
	sub, err := h.ops.Settings(h.ctx, c.Sender().ID)
	if err != nil {
		return h.respondError(c, err, logCtx.WithError(err))
	}
	return editOrAck(c, text, mainKeyboard(sub))
}

func (h *Handlers) onToggleNotify(c telebot.Context) error {
	logCtx := h.logFor(c, uniqueToggleNotify)

	sub, err := h.ops.ToggleNotifications(h.ctx, c.Sender().ID)
	if err != nil {
		return h.respondError(c, err, logCtx.WithError(err))
	}
	if msg := c.Message(); msg != nil && !sub.Group.IsZero() {
		if err := c.Edit(msg.Text, mainKeyboard(sub)); err != nil && !isNotModified(err) {
			logCtx.WithError(err).Warn("Failed to refresh menu after toggle")
		}
	}
	toast := "🔕 Уведомления выключены"
	if sub.NotificationsEnabled {
		toast = "🔔 Уведомления включены"
	}
	return c.Respond(&telebot.CallbackResponse{Text: toast})
}

func (h *Handlers) respondError(c telebot.Context, err error, logCtx *logrus.Entry) error {
	if errors.Is(err, app.ErrGroupNotSelected) {
		return c.Respond(&telebot.CallbackResponse{Text: textChooseFirst, ShowAlert: true})
	}
	logCtx.Error("Handler failed")
	return c.Respond(&telebot.CallbackResponse{Text: textInternalError, ShowAlert: true})
}
