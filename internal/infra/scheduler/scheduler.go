package scheduler

import (
	"context"
	"fmt"
	"time"

	"outage_notification_bot/internal/app" // For NotificationService interface

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type NotificationScheduler struct {
	cronEngine     *cron.Cron
	notifService   app.NotificationService // Using the interface
	logger         *logrus.Entry
	cronSpecNotify string        // e.g., "@every 1m"
	jobTimeout     time.Duration // Upper bound for one notification cycle
}

func NewNotificationScheduler(
	notifService app.NotificationService,
	logger *logrus.Entry,
	cronSpecNotify string,
	jobTimeout time.Duration,
) *NotificationScheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &NotificationScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.Local), // Use server's local time for cron
			cron.WithLogger(cronLogger),
			// A slow cycle must never overlap the next tick.
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		notifService:   notifService,
		logger:         logger,
		cronSpecNotify: cronSpecNotify,
		jobTimeout:     jobTimeout,
	}
}

// Start registers the notification job and starts the engine.
func (s *NotificationScheduler) Start() error {
	s.logger.Info("Starting notification scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecNotify, s.runCycle)
	if err != nil {
		return fmt.Errorf("could not add notification cron job %q: %w", s.cronSpecNotify, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpecNotify).Info("Notification scheduler started.")
	return nil
}

func (s *NotificationScheduler) runCycle() {
	s.logger.Debug("Cron job triggered for notification cycle.")
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout) // Context for the job
	defer cancel()

	start := time.Now()
	if err := s.notifService.RunNotificationCycle(ctx); err != nil {
		s.logger.WithError(err).Error("Notification cycle failed")
		return
	}
	s.logger.WithField("duration", time.Since(start).String()).Debug("Notification cycle finished")
}

// Stop stops scheduling new cycles and waits for a running one to finish.
func (s *NotificationScheduler) Stop() {
	s.logger.Info("Stopping notification scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Notification scheduler stopped.")
}
