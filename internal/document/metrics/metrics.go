package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks document workflow activity.
type Metrics struct {
	DocumentsCreated   prometheus.Counter
	Transitions        *prometheus.CounterVec
	RejectedActions    *prometheus.CounterVec
	TrackingLookups    *prometheus.CounterVec
	NotifyFailures     prometheus.Counter
	ClassifierFallback prometheus.Counter
	ActionLatency      prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DocumentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "docutrack_documents_created_total",
			Help: "Total number of documents created",
		}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docutrack_document_transitions_total",
			Help: "Status transitions applied, by action",
		}, []string{"action"}),
		RejectedActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docutrack_document_actions_rejected_total",
			Help: "Actions rejected by the lifecycle engine, by action",
		}, []string{"action"}),
		TrackingLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docutrack_tracking_lookups_total",
			Help: "Tracking number lookups by result (found, not_found, auto_received)",
		}, []string{"result"}),
		NotifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "docutrack_document_notify_failures_total",
			Help: "Transitions committed whose notifications could not be dispatched",
		}),
		ClassifierFallback: factory.NewCounter(prometheus.CounterOpts{
			Name: "docutrack_document_classifier_fallbacks_total",
			Help: "Documents created with default category and priority after a classifier failure",
		}),
		ActionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "docutrack_document_action_duration_seconds",
			Help:    "Time to apply and persist a document action",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementDocumentsCreated() {
	if m != nil {
		m.DocumentsCreated.Inc()
	}
}

func (m *Metrics) IncrementTransition(action string) {
	if m != nil {
		m.Transitions.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncrementRejected(action string) {
	if m != nil {
		m.RejectedActions.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncrementTrackingLookup(result string) {
	if m != nil {
		m.TrackingLookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncrementNotifyFailure() {
	if m != nil {
		m.NotifyFailures.Inc()
	}
}

func (m *Metrics) IncrementClassifierFallback() {
	if m != nil {
		m.ClassifierFallback.Inc()
	}
}

func (m *Metrics) ObserveAction(start time.Time) {
	if m != nil {
		m.ActionLatency.Observe(time.Since(start).Seconds())
	}
}
