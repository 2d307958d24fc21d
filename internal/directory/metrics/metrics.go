package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts directory administration events.
type Metrics struct {
	UsersCreated   prometheus.Counter
	UsersDeleted   prometheus.Counter
	OfficesCreated prometheus.Counter
	SendersCleared prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "docutrack_users_created_total",
			Help: "Total number of users created by administrators",
		}),
		UsersDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "docutrack_users_deleted_total",
			Help: "Total number of users deleted by administrators",
		}),
		OfficesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "docutrack_offices_created_total",
			Help: "Total number of offices created",
		}),
		SendersCleared: factory.NewCounter(prometheus.CounterOpts{
			Name: "docutrack_document_senders_cleared_total",
			Help: "Documents whose sender was detached by a user deletion",
		}),
	}
}

func (m *Metrics) IncrementUsersCreated() {
	if m != nil {
		m.UsersCreated.Inc()
	}
}

func (m *Metrics) IncrementUsersDeleted(documentsDetached int) {
	if m != nil {
		m.UsersDeleted.Inc()
		m.SendersCleared.Add(float64(documentsDetached))
	}
}

func (m *Metrics) IncrementOfficesCreated() {
	if m != nil {
		m.OfficesCreated.Inc()
	}
}
