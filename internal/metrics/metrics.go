// Package metrics holds the prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_status_transitions_total",
		Help: "Committed status transitions by entity and edge.",
	}, []string{"entity", "from", "to"})

	RejectedTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_status_transitions_rejected_total",
		Help: "Status changes refused by the transition guard.",
	}, []string{"entity"})

	RecordsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_records_created_total",
		Help: "Committed creates by module.",
	}, []string{"module"})

	ActivityPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_activity_published_total",
		Help: "Activity log entries relayed to subscribers.",
	})

	ActivityRelayErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_activity_relay_errors_total",
		Help: "Failed activity relay batches.",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crm_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
