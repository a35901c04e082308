// internal/domain/schedule/snapshot.go
package schedule

import (
	"fmt"
	"time"
)

// TransitionType is the direction of the next status change.
// MAYBE is a first-class target so that event ids stay stable when the
// upstream switches a slot between OFF and MAYBE.
type TransitionType string

const (
	TransitionToOn    TransitionType = "TO_ON"
	TransitionToOff   TransitionType = "TO_OFF"
	TransitionToMaybe TransitionType = "TO_MAYBE"
)

func transitionTo(s Status) TransitionType {
	switch s {
	case StatusOn:
		return TransitionToOn
	case StatusMaybe:
		return TransitionToMaybe
	default:
		return TransitionToOff
	}
}

// Snapshot is the point-in-time interpretation of a day's intervals.
// It is immutable once built; a later computation supersedes it.
type Snapshot struct {
	Group              GroupID
	CurrentStatus      Status
	Timeline           []string // One glyph per hour, 24 entries; nil when unknown.
	NextTransitionAt   time.Time
	NextTransitionType TransitionType // Empty when no change is expected before day end.
	RenderedMessage    string
	ComputedAt         time.Time
}

func (s Snapshot) HasTransition() bool {
	return s.NextTransitionType != ""
}

// MinutesUntil returns the fractional minutes between now and the next transition.
func (s Snapshot) MinutesUntil(now time.Time) float64 {
	return s.NextTransitionAt.Sub(now).Minutes()
}

// EventID identifies the upcoming transition for deduplication. Two snapshots
// computed at different times for the same transition share the id.
func (s Snapshot) EventID() string {
	if !s.HasTransition() {
		return ""
	}
	return fmt.Sprintf("%s|%s|%s", s.Group, s.NextTransitionAt.Format("2006-01-02T15:04"), s.NextTransitionType)
}

// Unknown builds the snapshot shown when no usable data is available.
func Unknown(group GroupID, now time.Time) Snapshot {
	return Snapshot{
		Group:           group,
		CurrentStatus:   StatusUnknown,
		RenderedMessage: RenderUnavailable(group),
		ComputedAt:      now,
	}
}

// Compute derives the snapshot of day at now. Invalid input yields an
// UNKNOWN snapshot without a transition.
func Compute(group GroupID, day Day, now time.Time) Snapshot {
	if err := day.Validate(); err != nil {
		return Unknown(group, now)
	}

	snap := Snapshot{
		Group:         group,
		CurrentStatus: StatusUnknown,
		Timeline:      RenderTimeline(day),
		ComputedAt:    now,
	}

	offset := wallClockOffset(now)
	current := -1
	for i, iv := range day {
		if iv.Contains(offset) {
			current = i
			break
		}
	}

	if current >= 0 {
		snap.CurrentStatus = day[current].Status
		for _, iv := range day[current+1:] {
			if iv.Status != snap.CurrentStatus {
				snap.NextTransitionAt = atOffset(now, iv.Start)
				snap.NextTransitionType = transitionTo(iv.Status)
				break
			}
		}
	}

	snap.RenderedMessage = RenderMessage(group, snap.CurrentStatus, snap.NextTransitionAt, snap.NextTransitionType, snap.Timeline)
	return snap
}

func wallClockOffset(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// atOffset places a time-of-day offset on the same local date as ref.
func atOffset(ref time.Time, offset time.Duration) time.Time {
	y, mo, d := ref.Date()
	return time.Date(y, mo, d, int(offset/time.Hour), int((offset%time.Hour)/time.Minute), 0, 0, ref.Location())
}
