// Package metrics exposes the notifier's runtime counters and gauges as
// Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry groups the metrics for one notifier instance. The zero value is
// not usable; construct with NewRegistry.
type Registry struct {
	filesWatched       prometheus.Gauge
	directoriesWatched prometheus.Gauge
	shadowBytes        prometheus.Gauge
	eventsDelivered    prometheus.Counter
	drainErrors        prometheus.Counter
	eventsPublished    *prometheus.CounterVec
	eventsDropped      *prometheus.CounterVec
	eventSubscribers   *prometheus.GaugeVec
}

// Default is the process-wide Registry backed by prometheus.DefaultRegisterer.
// Callers that do not supply their own Registry fall back to this one.
var Default = NewRegistry(prometheus.DefaultRegisterer)

// NewRegistry registers a fresh set of collectors under the given
// Prometheus registerer. Passing prometheus.DefaultRegisterer is the usual
// choice for a single-notifier process; tests should pass a fresh
// prometheus.NewRegistry() to avoid cross-test collector collisions.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		filesWatched: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gestaltwatch",
			Subsystem: "notifier",
			Name:      "files_watched",
			Help:      "Number of files currently registered with at least one observer.",
		}),
		directoriesWatched: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gestaltwatch",
			Subsystem: "notifier",
			Name:      "directories_watched",
			Help:      "Number of directories currently holding a native watch handle.",
		}),
		shadowBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gestaltwatch",
			Subsystem: "shadow",
			Name:      "bytes_total",
			Help:      "Total bytes currently held in the shadow repository.",
		}),
		eventsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gestaltwatch",
			Subsystem: "notifier",
			Name:      "events_delivered_total",
			Help:      "Total file modification events delivered to observers by the notifier.",
		}),
		drainErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gestaltwatch",
			Subsystem: "notifier",
			Name:      "drain_errors_total",
			Help:      "Total errors encountered while draining a directory watch.",
		}),
		eventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gestaltwatch",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total events published on an event bus, by bus name and event type.",
		}, []string{"bus", "type"}),
		eventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gestaltwatch",
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Total events dropped before delivery, by bus name and event type.",
		}, []string{"bus", "type"}),
		eventSubscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gestaltwatch",
			Subsystem: "events",
			Name:      "subscribers",
			Help:      "Current subscriber count, by bus name and whether the subscription is filtered.",
		}, []string{"bus", "filtered"}),
	}
}

// SetFilesWatched records the current count of files with at least one
// observer.
func (r *Registry) SetFilesWatched(n int) {
	if r == nil {
		return
	}
	r.filesWatched.Set(float64(n))
}

// SetDirectoriesWatched records the current count of directory-watch table
// entries.
func (r *Registry) SetDirectoriesWatched(n int) {
	if r == nil {
		return
	}
	r.directoriesWatched.Set(float64(n))
}

// SetShadowBytes records the current total size of the shadow repository.
func (r *Registry) SetShadowBytes(n int64) {
	if r == nil {
		return
	}
	r.shadowBytes.Set(float64(n))
}

// IncEventsDelivered increments the notifier's delivered-events counter by
// one. Distinct from IncEventPublished, which tracks bus fan-out: an event
// can be delivered to an in-process Observer with no bus involved at all.
func (r *Registry) IncEventsDelivered() {
	if r == nil {
		return
	}
	r.eventsDelivered.Inc()
}

// IncDrainErrors increments the drain-error counter by one.
func (r *Registry) IncDrainErrors() {
	if r == nil {
		return
	}
	r.drainErrors.Inc()
}

// IncEventPublished is called by event.Bus for every successfully published
// event.
func (r *Registry) IncEventPublished(bus, eventType string) {
	if r == nil {
		return
	}
	r.eventsPublished.WithLabelValues(bus, eventType).Inc()
}

// IncEventDropped is called by event.Bus whenever a publish could not reach
// a subscriber (full buffer in non-blocking mode, or a write timeout).
func (r *Registry) IncEventDropped(bus, eventType string) {
	if r == nil {
		return
	}
	r.eventsDropped.WithLabelValues(bus, eventType).Inc()
}

// SetEventSubscriberCounts records the current subscriber count for the
// named bus, split by whether the subscription carries an event filter.
func (r *Registry) SetEventSubscriberCounts(bus string, filtered, unfiltered int) {
	if r == nil {
		return
	}
	r.eventSubscribers.WithLabelValues(bus, "true").Set(float64(filtered))
	r.eventSubscribers.WithLabelValues(bus, "false").Set(float64(unfiltered))
}
