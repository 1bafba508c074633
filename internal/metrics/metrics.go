package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_turns_total",
			Help: "Conversation turns by state before the turn and outcome kind",
		},
		[]string{"state", "kind"},
	)

	EntitiesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_entities_total",
			Help: "Persisted entities by type",
		},
		[]string{"type"}, // carrier|trip|parcel|rating
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_notifications_total",
			Help: "Carrier notifications by outcome",
		},
		[]string{"outcome"}, // sent|failed
	)

	ProjectedEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_projected_events_total",
			Help: "Events written to ClickHouse by kind",
		},
		[]string{"kind"},
	)
)

var once sync.Once

// MustRegister registers the collectors once; serve and workers may both call it.
func MustRegister(r prometheus.Registerer) {
	once.Do(func() {
		r.MustRegister(
			TurnsTotal,
			EntitiesTotal,
			NotificationsTotal,
			ProjectedEventsTotal,
		)
	})
}
