package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are package-level so repeated hub construction in tests
// reuses one registration.
var (
	deliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collabd_room_deliveries_total",
		Help: "Payloads delivered to room subscribers.",
	})
	droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collabd_room_subscribers_dropped_total",
		Help: "Subscribers dropped for not keeping up with room fan-out.",
	})
	connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collabd_websocket_connections",
		Help: "Open websocket connections.",
	})
)

type metrics struct {
	delivered   prometheus.Counter
	dropped     prometheus.Counter
	connections prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		delivered:   deliveredTotal,
		dropped:     droppedTotal,
		connections: connectionsGauge,
	}
}
