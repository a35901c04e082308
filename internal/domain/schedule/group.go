package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MaxQueue    = 6
	MaxSubQueue = 4
)

// GroupID identifies a supply group: a queue and its sub-queue, written "4.1".
// The zero value means "not selected".
type GroupID struct {
	Queue    int
	SubQueue int
}

func (g GroupID) IsZero() bool {
	return g.Queue == 0 && g.SubQueue == 0
}

// Valid reports whether both parts are within the ranges offered to subscribers.
func (g GroupID) Valid() bool {
	return g.Queue >= 1 && g.Queue <= MaxQueue && g.SubQueue >= 1 && g.SubQueue <= MaxSubQueue
}

func (g GroupID) String() string {
	return fmt.Sprintf("%d.%d", g.Queue, g.SubQueue)
}

// ParseGroupID parses the "Q.S" form produced by String.
func ParseGroupID(s string) (GroupID, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return GroupID{}, fmt.Errorf("invalid group id %q: expected <queue>.<subqueue>", s)
	}
	q, err := strconv.Atoi(parts[0])
	if err != nil {
		return GroupID{}, fmt.Errorf("invalid queue in group id %q: %w", s, err)
	}
	sq, err := strconv.Atoi(parts[1])
	if err != nil {
		return GroupID{}, fmt.Errorf("invalid sub-queue in group id %q: %w", s, err)
	}
	g := GroupID{Queue: q, SubQueue: sq}
	if !g.Valid() {
		return GroupID{}, fmt.Errorf("group id %q out of range", s)
	}
	return g, nil
}
