package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"outage_notification_bot/internal/domain/schedule"
	"outage_notification_bot/internal/domain/subscription"
	"outage_notification_bot/internal/infra/memory"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// MockSource implements schedule.Source.
type MockSource struct {
	FetchFunc func(ctx context.Context, group schedule.GroupID) (schedule.Day, error)
	calls     atomic.Int32
}

func (m *MockSource) FetchDailyIntervals(ctx context.Context, group schedule.GroupID) (schedule.Day, error) {
	m.calls.Add(1)
	return m.FetchFunc(ctx, group)
}

func (m *MockSource) Calls() int { return int(m.calls.Load()) }

type sentMessage struct {
	ChatID int64
	Text   string
}

// MockClient implements domainTelegram.Client and records successful sends.
type MockClient struct {
	SendFunc func(chatID int64, text string) error

	mu   sync.Mutex
	sent []sentMessage
}

func (m *MockClient) SendMessage(chatID int64, text string, _ *telebot.SendOptions) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(chatID, text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *MockClient) Sent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var group41 = schedule.GroupID{Queue: 4, SubQueue: 1}

func at(hour, minute, second int) time.Time {
	return time.Date(2026, 10, 17, hour, minute, second, 0, time.UTC)
}

func clock(s string) time.Duration {
	d, err := schedule.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return d
}

// eveningDay is OFF until 06:00, ON until 18:00, OFF after.
func eveningDay() schedule.Day {
	return schedule.Day{
		{Start: clock("00:00"), End: clock("06:00"), Status: schedule.StatusOff},
		{Start: clock("06:00"), End: clock("18:00"), Status: schedule.StatusOn},
		{Start: clock("18:00"), End: clock("24:00"), Status: schedule.StatusOff},
	}
}

func staticSource(day schedule.Day) *MockSource {
	return &MockSource{FetchFunc: func(context.Context, schedule.GroupID) (schedule.Day, error) { return day, nil }}
}

// failingRepo fails every call; embedded nil interface panics on anything not overridden.
type failingRepo struct {
	subscription.Repository
}

func (failingRepo) ListEnabled(context.Context) ([]*subscription.Subscription, error) {
	return nil, errors.New("db down")
}

// flakyRecordRepo fails the first SetLastNotifiedEvent call.
type flakyRecordRepo struct {
	*memory.SubscriptionRegistry
	recordCalls atomic.Int32
}

func (r *flakyRecordRepo) SetLastNotifiedEvent(ctx context.Context, subscriberID int64, eventID string) error {
	if r.recordCalls.Add(1) == 1 {
		return errors.New("db timeout")
	}
	return r.SubscriptionRegistry.SetLastNotifiedEvent(ctx, subscriberID, eventID)
}
