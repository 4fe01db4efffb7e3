package project

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registered once at package level; services share the collectors so
// constructing a Service in tests never double-registers.
var (
	joinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collabd_membership_joins_total",
		Help: "Join operations by outcome (joined, waitlisted).",
	}, []string{"outcome"})

	promotionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collabd_membership_promotions_total",
		Help: "Users promoted from a waitlist into a collaborator slot.",
	})
)

type metrics struct {
	joins      *prometheus.CounterVec
	promotions prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{joins: joinsTotal, promotions: promotionsTotal}
}
