// internal/domain/subscription/subscription.go
package subscription

import (
	"time"

	"outage_notification_bot/internal/domain/schedule"
)

// Subscription is the per-subscriber state kept by the registry.
// Corresponds to the 'subscriptions' table when Postgres is configured.
type Subscription struct {
	SubscriberID         int64            // Telegram chat ID
	Group                schedule.GroupID // Zero until the subscriber picks a queue and sub-queue
	NotificationsEnabled bool
	LastNotifiedEventID  string // Empty until the first delivered alert
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// New returns the default subscription created on first interaction.
func New(subscriberID int64, now time.Time) *Subscription {
	return &Subscription{
		SubscriberID:         subscriberID,
		NotificationsEnabled: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Notifiable reports whether the notification engine should consider this subscription.
func (s *Subscription) Notifiable() bool {
	return s.NotificationsEnabled && !s.Group.IsZero()
}
