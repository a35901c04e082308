package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt" // For error wrapping

	"outage_notification_bot/internal/domain/schedule"
	"outage_notification_bot/internal/domain/subscription"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors
var ErrSubscriptionNotFound = fmt.Errorf("database: %w", subscription.ErrNotFound)

const schemaSQL = `CREATE TABLE IF NOT EXISTS subscriptions (
    subscriber_id          BIGINT PRIMARY KEY,
    queue                  SMALLINT NOT NULL DEFAULT 0,
    sub_queue              SMALLINT NOT NULL DEFAULT 0,
    notifications_enabled  BOOLEAN NOT NULL DEFAULT TRUE,
    last_notified_event_id TEXT NOT NULL DEFAULT '',
    created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const subscriptionColumns = `subscriber_id, queue, sub_queue, notifications_enabled, last_notified_event_id, created_at, updated_at`

type PostgresSubscriptionRepository struct {
	db *sql.DB
}

func NewPostgresSubscriptionRepository(db *sql.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

// EnsureSchema creates the subscriptions table when it does not exist yet.
func (r *PostgresSubscriptionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("error creating subscriptions table: %w", err)
	}
	return nil
}

func scanSubscription(row interface{ Scan(...any) error }) (*subscription.Subscription, error) {
	s := &subscription.Subscription{}
	err := row.Scan(&s.SubscriberID, &s.Group.Queue, &s.Group.SubQueue, &s.NotificationsEnabled, &s.LastNotifiedEventID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresSubscriptionRepository) GetOrCreate(ctx context.Context, subscriberID int64) (*subscription.Subscription, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `INSERT INTO subscriptions (subscriber_id) VALUES ($1)
               ON CONFLICT (subscriber_id) DO UPDATE SET subscriber_id = EXCLUDED.subscriber_id
               RETURNING ` + subscriptionColumns
	s, err := scanSubscription(r.db.QueryRowContext(ctx, query, subscriberID))
	if err != nil {
		return nil, fmt.Errorf("error getting or creating subscription %d: %w", subscriberID, err)
	}
	return s, nil
}

func (r *PostgresSubscriptionRepository) UpdateSelection(ctx context.Context, subscriberID int64, group schedule.GroupID) (*subscription.Subscription, error) {
	if !group.Valid() {
		return nil, fmt.Errorf("database: invalid group %s", group)
	}
	query := `INSERT INTO subscriptions (subscriber_id, queue, sub_queue) VALUES ($1, $2, $3)
               ON CONFLICT (subscriber_id) DO UPDATE SET
                   queue = EXCLUDED.queue,
                   sub_queue = EXCLUDED.sub_queue,
                   last_notified_event_id = CASE
                       WHEN subscriptions.queue = EXCLUDED.queue AND subscriptions.sub_queue = EXCLUDED.sub_queue
                       THEN subscriptions.last_notified_event_id ELSE '' END,
                   updated_at = NOW()
               RETURNING ` + subscriptionColumns
	s, err := scanSubscription(r.db.QueryRowContext(ctx, query, subscriberID, group.Queue, group.SubQueue))
	if err != nil {
		return nil, fmt.Errorf("error updating selection for subscription %d: %w", subscriberID, err)
	}
	return s, nil
}

func (r *PostgresSubscriptionRepository) ToggleNotifications(ctx context.Context, subscriberID int64) (*subscription.Subscription, error) {
	query := `UPDATE subscriptions SET notifications_enabled = NOT notifications_enabled, updated_at = NOW()
               WHERE subscriber_id = $1
               RETURNING ` + subscriptionColumns
	s, err := scanSubscription(r.db.QueryRowContext(ctx, query, subscriberID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("error toggling notifications for subscription %d: %w", subscriberID, err)
	}
	return s, nil
}

func (r *PostgresSubscriptionRepository) SetLastNotifiedEvent(ctx context.Context, subscriberID int64, eventID string) error {
	query := `UPDATE subscriptions SET last_notified_event_id = $1, updated_at = NOW() WHERE subscriber_id = $2`
	return r.execOne(ctx, "setting last notified event", query, eventID, subscriberID)
}

func (r *PostgresSubscriptionRepository) DisableNotifications(ctx context.Context, subscriberID int64) error {
	query := `UPDATE subscriptions SET notifications_enabled = FALSE, updated_at = NOW() WHERE subscriber_id = $1`
	return r.execOne(ctx, "disabling notifications", query, subscriberID)
}

func (r *PostgresSubscriptionRepository) execOne(ctx context.Context, action, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error %s: %w", action, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected while %s: %w", action, err)
	}
	if rowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *PostgresSubscriptionRepository) ListEnabled(ctx context.Context) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
               FROM subscriptions
               WHERE notifications_enabled = TRUE AND queue > 0 AND sub_queue > 0
               ORDER BY subscriber_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing enabled subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*subscription.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning subscription row: %w", err)
		}
		subs = append(subs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}
	return subs, nil
}
