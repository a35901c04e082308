package app

import (
	"context"
	"fmt"

	"outage_notification_bot/internal/domain/schedule"
	"outage_notification_bot/internal/domain/subscription"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for subscriber operations
var ErrGroupNotSelected = fmt.Errorf("subscriber has not selected a group")

// ScheduleReader is the read side of the schedule cache used by subscriber commands.
type ScheduleReader interface {
	Snapshot(ctx context.Context, group schedule.GroupID) schedule.Snapshot
	Day(ctx context.Context, group schedule.GroupID) (schedule.Day, error)
}

// SubscriberService implements the interactive operations behind the bot menu.
type SubscriberService struct {
	subs     subscription.Repository
	schedule ScheduleReader
	log      *logrus.Entry
}

func NewSubscriberService(subs subscription.Repository, sr ScheduleReader, log *logrus.Entry) *SubscriberService {
	return &SubscriberService{subs: subs, schedule: sr, log: log}
}

// Start registers the subscriber on first contact and returns the stored state.
func (s *SubscriberService) Start(ctx context.Context, subscriberID int64) (*subscription.Subscription, error) {
	sub, err := s.subs.GetOrCreate(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to register subscriber: %w", err)
	}
	return sub, nil
}

// SelectGroup stores the subscriber's queue and sub-queue.
func (s *SubscriberService) SelectGroup(ctx context.Context, subscriberID int64, group schedule.GroupID) (*subscription.Subscription, error) {
	if !group.Valid() {
		return nil, fmt.Errorf("invalid group %s", group)
	}
	sub, err := s.subs.UpdateSelection(ctx, subscriberID, group)
	if err != nil {
		return nil, fmt.Errorf("failed to save group selection: %w", err)
	}
	s.log.WithFields(logrus.Fields{"subscriber_id": subscriberID, "group": group.String()}).Info("Subscriber selected group")
	return sub, nil
}

// ToggleNotifications flips the alert switch and returns the new state.
func (s *SubscriberService) ToggleNotifications(ctx context.Context, subscriberID int64) (*subscription.Subscription, error) {
	// The registry may have lost the record (in-memory mode after restart).
	if _, err := s.subs.GetOrCreate(ctx, subscriberID); err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	sub, err := s.subs.ToggleNotifications(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle notifications: %w", err)
	}
	s.log.WithFields(logrus.Fields{"subscriber_id": subscriberID, "enabled": sub.NotificationsEnabled}).Info("Notifications toggled")
	return sub, nil
}

// Settings returns the subscriber's current configuration.
func (s *SubscriberService) Settings(ctx context.Context, subscriberID int64) (*subscription.Subscription, error) {
	return s.Start(ctx, subscriberID)
}

func (s *SubscriberService) selectedGroup(ctx context.Context, subscriberID int64) (*subscription.Subscription, error) {
	sub, err := s.subs.GetOrCreate(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub.Group.IsZero() {
		return nil, ErrGroupNotSelected
	}
	return sub, nil
}

// StatusNow returns the current snapshot for the subscriber's group. An
// unavailable schedule yields the UNKNOWN snapshot, not an error.
func (s *SubscriberService) StatusNow(ctx context.Context, subscriberID int64) (schedule.Snapshot, error) {
	sub, err := s.selectedGroup(ctx, subscriberID)
	if err != nil {
		return schedule.Snapshot{}, err
	}
	return s.schedule.Snapshot(ctx, sub.Group), nil
}

// DaySchedule renders today's intervals for the subscriber's group.
func (s *SubscriberService) DaySchedule(ctx context.Context, subscriberID int64) (string, error) {
	sub, err := s.selectedGroup(ctx, subscriberID)
	if err != nil {
		return "", err
	}
	day, err := s.schedule.Day(ctx, sub.Group)
	if err != nil {
		return schedule.RenderUnavailable(sub.Group), nil
	}
	return schedule.RenderDay(sub.Group, day), nil
}
