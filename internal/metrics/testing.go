package metrics

import "github.com/prometheus/client_golang/prometheus/testutil"

// EventsPublished returns the current value of the published-events counter
// for the given bus and event type, for use in tests.
func (r *Registry) EventsPublished(bus, eventType string) float64 {
	if r == nil {
		return 0
	}
	return testutil.ToFloat64(r.eventsPublished.WithLabelValues(bus, eventType))
}

// EventsDropped returns the current value of the dropped-events counter for
// the given bus and event type, for use in tests.
func (r *Registry) EventsDropped(bus, eventType string) float64 {
	if r == nil {
		return 0
	}
	return testutil.ToFloat64(r.eventsDropped.WithLabelValues(bus, eventType))
}

// EventSubscribers returns the current subscriber gauge for the given bus,
// split by whether the subscription is filtered, for use in tests.
func (r *Registry) EventSubscribers(bus string, filtered bool) float64 {
	if r == nil {
		return 0
	}
	label := "false"
	if filtered {
		label = "true"
	}
	return testutil.ToFloat64(r.eventSubscribers.WithLabelValues(bus, label))
}
