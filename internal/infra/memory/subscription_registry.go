package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"outage_notification_bot/internal/domain/schedule"
	"outage_notification_bot/internal/domain/subscription"
)

var ErrSubscriptionNotFound = fmt.Errorf("memory: %w", subscription.ErrNotFound)

// SubscriptionRegistry keeps subscriptions in process memory. State is lost on
// restart; it is used when no DATABASE_URL is configured and in tests.
type SubscriptionRegistry struct {
	mu   sync.RWMutex
	subs map[int64]*subscription.Subscription
	now  func() time.Time
}

func NewSubscriptionRegistry() *SubscriptionRegistry {
	return &SubscriptionRegistry{
		subs: make(map[int64]*subscription.Subscription),
		now:  time.Now,
	}
}

// copies are handed out so callers never share the stored record
func clone(s *subscription.Subscription) *subscription.Subscription {
	c := *s
	return &c
}

func (r *SubscriptionRegistry) GetOrCreate(_ context.Context, subscriberID int64) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subs[subscriberID]
	if !ok {
		s = subscription.New(subscriberID, r.now())
		r.subs[subscriberID] = s
	}
	return clone(s), nil
}

func (r *SubscriptionRegistry) UpdateSelection(_ context.Context, subscriberID int64, group schedule.GroupID) (*subscription.Subscription, error) {
	if !group.Valid() {
		return nil, fmt.Errorf("memory: invalid group %s", group)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subs[subscriberID]
	if !ok {
		s = subscription.New(subscriberID, r.now())
		r.subs[subscriberID] = s
	}
	if s.Group != group {
		s.Group = group
		// A different group has different transitions.
		s.LastNotifiedEventID = ""
	}
	s.UpdatedAt = r.now()
	return clone(s), nil
}

func (r *SubscriptionRegistry) ToggleNotifications(_ context.Context, subscriberID int64) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subs[subscriberID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	s.NotificationsEnabled = !s.NotificationsEnabled
	s.UpdatedAt = r.now()
	return clone(s), nil
}

func (r *SubscriptionRegistry) SetLastNotifiedEvent(_ context.Context, subscriberID int64, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subs[subscriberID]
	if !ok {
		return ErrSubscriptionNotFound
	}
	s.LastNotifiedEventID = eventID
	s.UpdatedAt = r.now()
	return nil
}

func (r *SubscriptionRegistry) DisableNotifications(_ context.Context, subscriberID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subs[subscriberID]
	if !ok {
		return ErrSubscriptionNotFound
	}
	s.NotificationsEnabled = false
	s.UpdatedAt = r.now()
	return nil
}

func (r *SubscriptionRegistry) ListEnabled(_ context.Context) ([]*subscription.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*subscription.Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		if s.Notifiable() {
			out = append(out, clone(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubscriberID < out[j].SubscriberID })
	return out, nil
}
