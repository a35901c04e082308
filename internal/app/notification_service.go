// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"outage_notification_bot/internal/domain/schedule"
	"outage_notification_bot/internal/domain/subscription"
	domainTelegram "outage_notification_bot/internal/domain/telegram" // Import from domain
	"outage_notification_bot/internal/infra/metrics"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/telebot.v3" // For telebot.SendOptions
)

// NotificationService runs the periodic pre-alert cycle.
type NotificationService interface {
	// RunNotificationCycle evaluates every group that has enabled subscribers
	// and sends at most one alert per subscriber and transition.
	RunNotificationCycle(ctx context.Context) error
}

// SnapshotProvider yields the snapshot of a group at a given instant.
type SnapshotProvider interface {
	SnapshotAt(ctx context.Context, group schedule.GroupID, now time.Time) schedule.Snapshot
}

// NotifyWindow is the inclusive range of minutes-until-transition in which an
// alert is sent: [Lead-Tolerance, Lead+Tolerance].
type NotifyWindow struct {
	Lead      float64
	Tolerance float64
}

func (w NotifyWindow) Contains(minutesUntil float64) bool {
	return minutesUntil >= w.Lead-w.Tolerance && minutesUntil <= w.Lead+w.Tolerance
}

// NotificationServiceImpl implements the NotificationService interface.
type NotificationServiceImpl struct {
	subs           subscription.Repository
	snapshots      SnapshotProvider
	telegramClient domainTelegram.Client // Use the interface from the domain package
	window         NotifyWindow
	maxConcurrent  int
	now            func() time.Time
	log            *logrus.Entry
	metrics        metrics.Recorder

	// Events sent but not yet recorded in subs, by subscriber.
	pendingMu sync.Mutex
	pending   map[int64]string
}

func NewNotificationServiceImpl(
	subs subscription.Repository,
	snapshots SnapshotProvider,
	tc domainTelegram.Client,
	window NotifyWindow,
	maxConcurrentGroups int,
	log *logrus.Entry,
	rec metrics.Recorder,
) *NotificationServiceImpl {
	if maxConcurrentGroups <= 0 {
		maxConcurrentGroups = 1
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &NotificationServiceImpl{
		subs:           subs,
		snapshots:      snapshots,
		telegramClient: tc,
		window:         window,
		maxConcurrent:  maxConcurrentGroups,
		now:            time.Now,
		log:            log,
		metrics:        rec,
		pending:        make(map[int64]string),
	}
}

// RunNotificationCycle performs one pass over all enabled subscriptions.
func (s *NotificationServiceImpl) RunNotificationCycle(ctx context.Context) error {
	now := s.now() // One instant for the whole cycle
	start := time.Now()
	defer func() { s.metrics.CycleDuration(time.Since(start)) }()

	enabled, err := s.subs.ListEnabled(ctx)
	if err != nil {
		s.log.WithError(err).Error("Failed to list enabled subscriptions")
		return fmt.Errorf("failed to list enabled subscriptions: %w", err)
	}
	if len(enabled) == 0 {
		s.log.Debug("No enabled subscriptions. Nothing to do this cycle.")
		return nil
	}

	byGroup := make(map[schedule.GroupID][]*subscription.Subscription)
	for _, sub := range enabled {
		if !sub.Notifiable() {
			continue
		}
		byGroup[sub.Group] = append(byGroup[sub.Group], sub)
	}
	s.log.WithFields(logrus.Fields{"subscriptions": len(enabled), "groups": len(byGroup)}).Debug("Running notification cycle")

	var g errgroup.Group
	g.SetLimit(s.maxConcurrent)
	for group, subs := range byGroup {
		group, subs := group, subs
		g.Go(func() error {
			// A failing group never aborts the others.
			s.processGroup(ctx, now, group, subs)
			return nil
		})
	}
	return g.Wait()
}

func (s *NotificationServiceImpl) processGroup(ctx context.Context, now time.Time, group schedule.GroupID, subs []*subscription.Subscription) {
	log := s.log.WithField("group", group.String())

	snap := s.snapshots.SnapshotAt(ctx, group, now)
	if snap.CurrentStatus == schedule.StatusUnknown {
		log.Debug("Schedule unavailable, skipping group")
		return
	}
	if !snap.HasTransition() {
		return
	}

	minutesUntil := snap.MinutesUntil(now)
	if !s.window.Contains(minutesUntil) {
		return
	}

	eventID := snap.EventID()
	text := schedule.RenderAlert(group, snap.NextTransitionType, snap.NextTransitionAt, int(math.Round(minutesUntil)))
	log = log.WithField("event_id", eventID)

	for _, sub := range subs {
		if ctx.Err() != nil {
			return
		}
		if sub.LastNotifiedEventID == eventID {
			s.clearPending(sub.SubscriberID, eventID)
			continue
		}
		if s.isPending(sub.SubscriberID, eventID) {
			s.recordDelivered(ctx, log.WithField("subscriber_id", sub.SubscriberID), sub.SubscriberID, eventID)
			continue
		}
		s.deliver(ctx, log.WithField("subscriber_id", sub.SubscriberID), sub.SubscriberID, eventID, text)
	}
}

func (s *NotificationServiceImpl) deliver(ctx context.Context, log *logrus.Entry, subscriberID int64, eventID, text string) {
	err := s.telegramClient.SendMessage(subscriberID, text, &telebot.SendOptions{ParseMode: telebot.ModeDefault})
	switch {
	case err == nil:
		s.metrics.Notification(metrics.ResultDelivered)
		log.Info("Pre-alert delivered")
		s.setPending(subscriberID, eventID)
		s.recordDelivered(ctx, log, subscriberID, eventID)
	case errors.Is(err, domainTelegram.ErrRecipientUnreachable):
		s.metrics.Notification(metrics.ResultUnreachable)
		log.WithError(err).Warn("Recipient unreachable, disabling notifications")
		if errDisable := s.subs.DisableNotifications(ctx, subscriberID); errDisable != nil {
			log.WithError(errDisable).Error("Failed to disable notifications for unreachable recipient")
		}
	default:
		// Left unrecorded so the next cycle inside the window retries.
		s.metrics.Notification(metrics.ResultFailed)
		log.WithError(err).Error("Failed to send pre-alert")
	}
}

// recordDelivered persists eventID for the subscriber. On failure the event
// stays pending and the write is retried next cycle without resending.
func (s *NotificationServiceImpl) recordDelivered(ctx context.Context, log *logrus.Entry, subscriberID int64, eventID string) {
	if err := s.subs.SetLastNotifiedEvent(ctx, subscriberID, eventID); err != nil {
		log.WithError(err).Error("Failed to record last notified event, will retry")
		return
	}
	s.clearPending(subscriberID, eventID)
}

func (s *NotificationServiceImpl) setPending(subscriberID int64, eventID string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	s.pending[subscriberID] = eventID
}

func (s *NotificationServiceImpl) isPending(subscriberID int64, eventID string) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return s.pending[subscriberID] == eventID
}

func (s *NotificationServiceImpl) clearPending(subscriberID int64, eventID string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if s.pending[subscriberID] == eventID {
		delete(s.pending, subscriberID)
	}
}
