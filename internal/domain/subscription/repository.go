package subscription

import (
	"context"
	"errors"

	"outage_notification_bot/internal/domain/schedule"
)

var ErrNotFound = errors.New("subscription not found")

// Repository defines the operations of the subscription registry.
// Implementations must be safe for concurrent use by the notification
// engine and the bot handlers.
type Repository interface {
	GetOrCreate(ctx context.Context, subscriberID int64) (*Subscription, error)
	UpdateSelection(ctx context.Context, subscriberID int64, group schedule.GroupID) (*Subscription, error)
	ToggleNotifications(ctx context.Context, subscriberID int64) (*Subscription, error)
	// SetLastNotifiedEvent records the last delivered transition event.
	SetLastNotifiedEvent(ctx context.Context, subscriberID int64, eventID string) error
	// DisableNotifications switches alerts off in place, e.g. after the recipient blocked the bot.
	DisableNotifications(ctx context.Context, subscriberID int64) error
	// ListEnabled returns subscriptions with notifications on and a group selected.
	ListEnabled(ctx context.Context) ([]*Subscription, error)
}
