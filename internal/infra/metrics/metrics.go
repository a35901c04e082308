package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Notification delivery outcomes.
const (
	ResultDelivered   = "delivered"
	ResultUnreachable = "unreachable"
	ResultFailed      = "failed"
)

// Recorder receives the operational counters of the bot. The application
// layer depends on this interface only.
type Recorder interface {
	CacheLookup(hit bool)
	SourceFetch(err error)
	Notification(result string)
	CycleDuration(d time.Duration)
}

// Nop discards everything.
type Nop struct{}

func (Nop) CacheLookup(bool) {}
func (Nop) SourceFetch(error) {}
func (Nop) Notification(string) {}
func (Nop) CycleDuration(time.Duration) {}

// PromRecorder records bot activity in Prometheus metrics.
type PromRecorder struct {
	cacheLookups  *prometheus.CounterVec
	sourceFetches *prometheus.CounterVec
	notifications *prometheus.CounterVec
	cycleDuration prometheus.Histogram
}

// NewPromRecorder registers the collectors on reg. If reg is nil, the default
// registerer is used. Collectors that are already registered are reused.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PromRecorder{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outage_bot_schedule_cache_lookups_total",
			Help: "Schedule cache lookups by outcome",
		}, []string{"outcome"}),
		sourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outage_bot_source_fetches_total",
			Help: "Upstream schedule fetches by result",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outage_bot_notifications_total",
			Help: "Pre-alert deliveries by result",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "outage_bot_notification_cycle_seconds",
			Help:    "Duration of one notification cycle",
			Buckets: prometheus.DefBuckets,
		}),
	}

	var err error
	if r.cacheLookups, err = register(reg, r.cacheLookups); err != nil {
		return nil, err
	}
	if r.sourceFetches, err = register(reg, r.sourceFetches); err != nil {
		return nil, err
	}
	if r.notifications, err = register(reg, r.notifications); err != nil {
		return nil, err
	}
	if r.cycleDuration, err = register(reg, r.cycleDuration); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PromRecorder) CacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheLookups.WithLabelValues(outcome).Inc()
}

func (r *PromRecorder) SourceFetch(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.sourceFetches.WithLabelValues(result).Inc()
}

func (r *PromRecorder) Notification(result string) {
	r.notifications.WithLabelValues(result).Inc()
}

func (r *PromRecorder) CycleDuration(d time.Duration) {
	r.cycleDuration.Observe(d.Seconds())
}
