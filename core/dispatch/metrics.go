package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesEnqueued    *prometheus.CounterVec
	messagesApplied     *prometheus.CounterVec
	applyLatency        *prometheus.HistogramVec
	queueDepth          prometheus.Gauge
	couplingTransitions *prometheus.CounterVec
	applyPanics         prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.HistogramVec, prometheus.Gauge, *prometheus.CounterVec, prometheus.Counter) {
	enq := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchpsu_dispatch_messages_enqueued_total",
			Help: "Number of operations marshaled to the owner task",
		},
		[]string{"op"},
	)
	app := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchpsu_dispatch_messages_applied_total",
			Help: "Number of operations applied by the owner task",
		},
		[]string{"op"},
	)
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "benchpsu_dispatch_apply_seconds",
			Help:    "Time spent applying one operation, relay settle excluded",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"op"},
	)
	depth := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "benchpsu_dispatch_queue_depth",
			Help: "Messages waiting for the owner task",
		},
	)
	coup := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchpsu_coupling_transitions_total",
			Help: "Number of completed coupling transitions by target coupling",
		},
		[]string{"coupling"},
	)
	pan := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "benchpsu_dispatch_apply_panics_total",
			Help: "Number of operations that panicked on the owner task",
		},
	)
	return enq, app, lat, depth, coup, pan
}

func init() {
	messagesEnqueued, messagesApplied, applyLatency, queueDepth, couplingTransitions, applyPanics = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(messagesEnqueued, messagesApplied, applyLatency, queueDepth, couplingTransitions, applyPanics)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	messagesEnqueued, messagesApplied, applyLatency, queueDepth, couplingTransitions, applyPanics = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
