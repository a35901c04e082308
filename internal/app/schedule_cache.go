package app

import (
	"context"
	"time"

	"outage_notification_bot/internal/domain/schedule"
	"outage_notification_bot/internal/infra/metrics"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type cachedDay struct {
	day       schedule.Day
	expiresAt time.Time
}

// ScheduleCache memoizes validated days per group for the TTL. Snapshots are
// always recomputed from the cached day against the current time, so a hit
// never reports a stale current status. Failed fetches are not cached.
type ScheduleCache struct {
	source  schedule.Source
	store   *gocache.Cache
	flight  singleflight.Group
	ttl     time.Duration
	now     func() time.Time
	log     *logrus.Entry
	metrics metrics.Recorder
}

func NewScheduleCache(source schedule.Source, ttl time.Duration, log *logrus.Entry, rec metrics.Recorder) *ScheduleCache {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &ScheduleCache{
		source:  source,
		store:   gocache.New(ttl, 2*ttl),
		ttl:     ttl,
		now:     time.Now,
		log:     log,
		metrics: rec,
	}
}

// Day returns today's intervals for group, fetching them on a miss.
func (c *ScheduleCache) Day(ctx context.Context, group schedule.GroupID) (schedule.Day, error) {
	key := group.String()
	if v, ok := c.store.Get(key); ok {
		entry := v.(cachedDay)
		if !c.now().After(entry.expiresAt) {
			c.metrics.CacheLookup(true)
			c.log.WithField("group", key).Debug("Schedule cache hit")
			return entry.day, nil
		}
		c.store.Delete(key)
	}
	c.metrics.CacheLookup(false)

	v, err, _ := c.flight.Do(key, func() (any, error) {
		day, err := c.source.FetchDailyIntervals(ctx, group)
		c.metrics.SourceFetch(err)
		if err != nil {
			return nil, err
		}
		c.store.Set(key, cachedDay{day: day, expiresAt: c.now().Add(c.ttl)}, c.ttl)
		return day, nil
	})
	if err != nil {
		c.log.WithError(err).WithField("group", key).Warn("Failed to fetch schedule")
		return nil, err
	}
	return v.(schedule.Day), nil
}

// Snapshot computes the current snapshot for group. Any failure to obtain a
// valid day yields the UNKNOWN snapshot.
func (c *ScheduleCache) Snapshot(ctx context.Context, group schedule.GroupID) schedule.Snapshot {
	day, err := c.Day(ctx, group)
	now := c.now()
	if err != nil {
		return schedule.Unknown(group, now)
	}
	return schedule.Compute(group, day, now)
}

// SnapshotAt is Snapshot evaluated at a caller-supplied instant, used by the
// notification cycle so every group is judged against the same now.
func (c *ScheduleCache) SnapshotAt(ctx context.Context, group schedule.GroupID, now time.Time) schedule.Snapshot {
	day, err := c.Day(ctx, group)
	if err != nil {
		return schedule.Unknown(group, now)
	}
	return schedule.Compute(group, day, now)
}
