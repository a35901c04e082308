// internal/domain/schedule/interval.go
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the power availability of a supply group during an interval.
type Status string

const (
	StatusOn      Status = "ON"
	StatusOff     Status = "OFF"
	StatusMaybe   Status = "MAYBE"
	StatusUnknown Status = "UNKNOWN" // Only ever produced for snapshots, never parsed.
)

const (
	// Granularity is the only slot size the upstream schedule is published in.
	Granularity = 30 * time.Minute
	DayLength   = 24 * time.Hour
)

var (
	ErrMalformedIntervals = errors.New("malformed interval data")
	ErrUnknownStatus      = errors.New("unknown status code")
)

// IntervalError describes which interval made the day unusable.
type IntervalError struct {
	Index  int
	Reason string
}

func (e *IntervalError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", ErrMalformedIntervals, e.Reason)
	}
	return fmt.Sprintf("%s: interval %d: %s", ErrMalformedIntervals, e.Index, e.Reason)
}

func (e *IntervalError) Unwrap() error { return ErrMalformedIntervals }

// ParseStatus maps the upstream codes "on", "off" and "maybe" onto Status.
func ParseStatus(code string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "on":
		return StatusOn, nil
	case "off":
		return StatusOff, nil
	case "maybe":
		return StatusMaybe, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, code)
	}
}

// ParseClock parses "HH:MM" into an offset from local midnight.
// "24:00" is accepted and denotes the end of the day.
func ParseClock(s string) (time.Duration, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// FormatClock is the inverse of ParseClock.
func FormatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int((d%time.Hour)/time.Minute))
}

// Interval is one status slot of a day, [Start, End) measured from local midnight.
type Interval struct {
	Start  time.Duration
	End    time.Duration
	Status Status
}

func (iv Interval) Contains(offset time.Duration) bool {
	return offset >= iv.Start && offset < iv.End
}

// Day is the ordered list of intervals for today. It is produced fresh on every
// fetch and never mutated afterwards.
type Day []Interval

// Validate checks that the day is non-empty, ordered, gap-free, covers
// 00:00-24:00 and is published on the 30 minute grid.
func (d Day) Validate() error {
	if len(d) == 0 {
		return &IntervalError{Index: -1, Reason: "no intervals"}
	}
	var prevEnd time.Duration
	for i, iv := range d {
		switch iv.Status {
		case StatusOn, StatusOff, StatusMaybe:
		default:
			return &IntervalError{Index: i, Reason: fmt.Sprintf("status %q not allowed", iv.Status)}
		}
		if iv.Start%Granularity != 0 || iv.End%Granularity != 0 {
			return &IntervalError{Index: i, Reason: fmt.Sprintf("boundary %s-%s is not on the %s grid", FormatClock(iv.Start), FormatClock(iv.End), Granularity)}
		}
		if iv.Start >= iv.End {
			return &IntervalError{Index: i, Reason: fmt.Sprintf("start %s is not before end %s", FormatClock(iv.Start), FormatClock(iv.End))}
		}
		if iv.Start != prevEnd {
			if iv.Start > prevEnd {
				return &IntervalError{Index: i, Reason: fmt.Sprintf("gap between %s and %s", FormatClock(prevEnd), FormatClock(iv.Start))}
			}
			return &IntervalError{Index: i, Reason: fmt.Sprintf("overlaps previous interval at %s", FormatClock(iv.Start))}
		}
		prevEnd = iv.End
	}
	if prevEnd != DayLength {
		return &IntervalError{Index: len(d) - 1, Reason: fmt.Sprintf("day ends at %s instead of 24:00", FormatClock(prevEnd))}
	}
	return nil
}

// StatusAt returns the status of the interval containing offset.
// The second result is false when no interval contains it.
func (d Day) StatusAt(offset time.Duration) (Status, bool) {
	for _, iv := range d {
		if iv.Contains(offset) {
			return iv.Status, true
		}
	}
	return StatusUnknown, false
}
