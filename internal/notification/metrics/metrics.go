package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks notification fan-out and delivery.
type Metrics struct {
	Emitted         prometheus.Counter
	Dropped         prometheus.Counter
	Published       prometheus.Counter
	PublishFailures prometheus.Counter
	QueueDepth      prometheus.Gauge
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Emitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "docutrack_notifications_emitted_total",
			Help: "Notifications persisted for users",
		}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "docutrack_notification_events_dropped_total",
			Help: "Notification events dropped because the delivery queue was full",
		}),
		Published: factory.NewCounter(prometheus.CounterOpts{
			Name: "docutrack_notification_events_published_total",
			Help: "Notification events handed to the publisher",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "docutrack_notification_publish_failures_total",
			Help: "Notification events the publisher rejected",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "docutrack_notification_queue_depth",
			Help: "Notification events waiting for delivery",
		}),
	}
}

func (m *Metrics) IncrementEmitted(n int) {
	if m != nil {
		m.Emitted.Add(float64(n))
	}
}

func (m *Metrics) IncrementDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) IncrementPublished() {
	if m != nil {
		m.Published.Inc()
	}
}

func (m *Metrics) IncrementPublishFailures() {
	if m != nil {
		m.PublishFailures.Inc()
	}
}

func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.QueueDepth.Set(float64(n))
	}
}
