package schedule

import (
	"fmt"
	"strings"
	"time"
)

const (
	GlyphOn    = "■"
	GlyphOff   = "□"
	GlyphMaybe = "▨"
)

func glyph(s Status) string {
	switch s {
	case StatusOn:
		return GlyphOn
	case StatusOff:
		return GlyphOff
	case StatusMaybe:
		return GlyphMaybe
	default:
		return "?"
	}
}

func statusIcon(s Status) string {
	switch s {
	case StatusOn:
		return "🟦"
	case StatusOff:
		return "⬛"
	case StatusMaybe:
		return "⬜"
	default:
		return "❔"
	}
}

func statusText(s Status) string {
	switch s {
	case StatusOn:
		return "свет есть"
	case StatusOff:
		return "света нет"
	case StatusMaybe:
		return "возможно отключение"
	default:
		return "неизвестно"
	}
}

func transitionText(t TransitionType) string {
	switch t {
	case TransitionToOn:
		return "включение света"
	case TransitionToOff:
		return "отключение света"
	case TransitionToMaybe:
		return "возможное отключение"
	default:
		return "изменений нет"
	}
}

// RenderTimeline collapses a valid day into one glyph per hour, taken from the
// half-hour slot starting at hh:00.
func RenderTimeline(day Day) []string {
	timeline := make([]string, 0, 24)
	for h := 0; h < 24; h++ {
		s, _ := day.StatusAt(time.Duration(h) * time.Hour)
		timeline = append(timeline, glyph(s))
	}
	return timeline
}

func writeTimeline(b *strings.Builder, timeline []string) {
	if len(timeline) != 24 {
		return
	}
	b.WriteString("\n\n")
	b.WriteString("00–11  ")
	b.WriteString(strings.Join(timeline[:12], ""))
	b.WriteString("\n12–23  ")
	b.WriteString(strings.Join(timeline[12:], ""))
	fmt.Fprintf(b, "\n%s есть  %s нет  %s возможно", GlyphOn, GlyphOff, GlyphMaybe)
}

// RenderMessage is the status text shown to subscribers.
func RenderMessage(group GroupID, status Status, nextAt time.Time, nextType TransitionType, timeline []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s СТАТУС: Очередь %s: %s\n\n", statusIcon(status), group, statusText(status))
	if nextType == "" {
		b.WriteString("⏳ Следующее изменение: до конца дня не ожидается")
	} else {
		fmt.Fprintf(&b, "⏳ Следующее изменение: в %s (%s)", nextAt.Format("15:04"), transitionText(nextType))
	}
	writeTimeline(&b, timeline)
	return b.String()
}

// RenderUnavailable is shown instead of stale or fabricated data.
func RenderUnavailable(group GroupID) string {
	return fmt.Sprintf("%s СТАТУС: Очередь %s: %s\n\nДанные о графике сейчас недоступны. Попробуйте позже.", statusIcon(StatusUnknown), group, statusText(StatusUnknown))
}

// RenderAlert is the pre-alert notification text.
func RenderAlert(group GroupID, nextType TransitionType, nextAt time.Time, minutesUntil int) string {
	return fmt.Sprintf("⚠️ Очередь %s: через %d мин %s (в %s).", group, minutesUntil, transitionText(nextType), nextAt.Format("15:04"))
}

// RenderDay lists every interval of the day, merged where consecutive slots share a status.
func RenderDay(group GroupID, day Day) string {
	if err := day.Validate(); err != nil {
		return RenderUnavailable(group)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📅 График на сегодня, очередь %s:\n", group)
	start := day[0].Start
	for i, iv := range day {
		if i+1 < len(day) && day[i+1].Status == iv.Status {
			continue
		}
		fmt.Fprintf(&b, "\n%s %s–%s %s", glyph(iv.Status), FormatClock(start), FormatClock(iv.End), statusText(iv.Status))
		if i+1 < len(day) {
			start = day[i+1].Start
		}
	}
	writeTimeline(&b, RenderTimeline(day))
	return b.String()
}
