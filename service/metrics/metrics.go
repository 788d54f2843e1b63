package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OnlineConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "psocial",
		Name:      "online_connections",
		Help:      "Identities currently bound to a live realtime connection.",
	})

	PushTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "psocial",
		Name:      "push_total",
		Help:      "Realtime pushes by event and delivery result.",
	}, []string{"event", "result"})

	MessagesPersisted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "psocial",
		Name:      "messages_persisted_total",
		Help:      "Direct messages stored.",
	})

	EventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "psocial",
		Name:      "events_dropped_total",
		Help:      "Domain events that never reached the broker.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(OnlineConnections, PushTotal, MessagesPersisted, EventsDropped)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
