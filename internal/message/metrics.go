package message

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collabd_messages_sent_total",
		Help: "Persisted chat messages by published event name.",
	}, []string{"event"})

	publishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collabd_message_publish_failures_total",
		Help: "Room publishes that failed after the message was persisted.",
	})
)

type metrics struct {
	sent            *prometheus.CounterVec
	publishFailures prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{sent: sentTotal, publishFailures: publishFailuresTotal}
}
