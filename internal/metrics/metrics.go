package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CallbacksReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_callbacks_received_total",
		Help: "Total number of callbacks hitting the gateway endpoint.",
	})

	CallbackOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_callback_outcomes_total",
		Help: "Callback pipeline outcomes, labelled by outcome kind.",
	}, []string{"outcome"})

	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_rate_limit_rejections_total",
		Help: "Requests rejected by the fixed-window rate limiter.",
	})

	SecurityEventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_security_events_total",
		Help: "Security events recorded, labelled by severity.",
	}, []string{"severity"})

	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_critical_alerts_sent_total",
		Help: "Critical-severity alerts dispatched to the alert channel.",
	})

	CallbackDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gateway_callback_duration_ms",
		Help:    "End-to-end callback processing latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
)
