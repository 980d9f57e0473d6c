// Package metrics holds the prometheus counters the store reports to.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tdb_store"

var (
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Store operations by model and operation name",
		},
		[]string{"model", "op"},
	)
	Evictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Records evicted by model and eviction policy",
		},
		[]string{"model", "policy"},
	)
	TransactionRollbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_rollbacks_total",
			Help:      "Transactions that were rolled back",
		},
	)
	SubscriberPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriber_panics_total",
			Help:      "Subscriber callbacks that panicked",
		},
	)
)

func ObserveOperation(model, op string) {
	Operations.WithLabelValues(model, op).Inc()
}

func ObserveEvictions(model, policy string, n int) {
	if n > 0 {
		Evictions.WithLabelValues(model, policy).Add(float64(n))
	}
}
