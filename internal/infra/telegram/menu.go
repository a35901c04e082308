package telegram

import (
	"fmt"
	"strconv"

	"outage_notification_bot/internal/domain/schedule"
	"outage_notification_bot/internal/domain/subscription"

	"gopkg.in/telebot.v3"
)

// Callback uniques. telebot routes "\f<unique>|<data>" to the handler
// registered for &telebot.Btn{Unique: unique}.
const (
	uniqueQueue          = "queue"
	uniqueSubQueue       = "sub"
	uniqueBackToQueue    = "back_to_queue"
	uniqueStatusNow      = "status_now"
	uniqueScheduleDay    = "schedule_day"
	uniqueToggleNotify   = "toggle_notify"
	uniqueChangeSettings = "change_settings"
)

func queueKeyboard() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	btns := make([]telebot.Btn, 0, schedule.MaxQueue)
	for q := 1; q <= schedule.MaxQueue; q++ {
		btns = append(btns, menu.Data(fmt.Sprintf("Очередь %d", q), uniqueQueue, strconv.Itoa(q)))
	}
	menu.Inline(menu.Split(3, btns)...)
	return menu
}

func subQueueKeyboard(queue int) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	btns := make([]telebot.Btn, 0, schedule.MaxSubQueue)
	for sq := 1; sq <= schedule.MaxSubQueue; sq++ {
		g := schedule.GroupID{Queue: queue, SubQueue: sq}
		btns = append(btns, menu.Data(g.String(), uniqueSubQueue, g.String()))
	}
	rows := menu.Split(2, btns)
	rows = append(rows, menu.Row(menu.Data("🔙 Назад", uniqueBackToQueue)))
	menu.Inline(rows...)
	return menu
}

func mainKeyboard(sub *subscription.Subscription) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	notify := "🔕 Уведомления: выкл"
	if sub.NotificationsEnabled {
		notify = "🔔 Уведомления: вкл"
	}
	menu.Inline(
		menu.Row(menu.Data("💡 Статус сейчас", uniqueStatusNow)),
		menu.Row(menu.Data("📅 График на день", uniqueScheduleDay)),
		menu.Row(menu.Data(notify, uniqueToggleNotify)),
		menu.Row(menu.Data(fmt.Sprintf("⚙️ Изменить (%s)", sub.Group), uniqueChangeSettings)),
	)
	return menu
}

const (
	textChooseQueue = "👋 Привет! Я слежу за графиком отключений света.\nДавай настроим твою очередь. Выбери номер очереди:"
	textHelp        = "Я показываю текущий статус электроснабжения по твоей очереди и присылаю предупреждение примерно за 15 минут до включения или отключения света.\n\n" +
		"/start - выбрать очередь и открыть меню\n" +
		"/help - показать это сообщение\n\n" +
		"Обозначения: ■ свет есть, □ света нет, ▨ возможно отключение."
	textInternalError   = "Произошла ошибка. Пожалуйста, попробуйте позже."
	textChooseFirst     = "Сначала выберите очередь!"
	textDataUpToDate    = "Данные актуальны"
	textUnknownQueueBtn = "Неизвестная очередь."
)

func textSettingsDone(sub *subscription.Subscription) string {
	return fmt.Sprintf("🎉 Настройка завершена!\nТвоя группа: %s", sub.Group)
}

func textWelcomeBack(sub *subscription.Subscription) string {
	return fmt.Sprintf("👋 С возвращением!\nТвоя группа: %s", sub.Group)
}
