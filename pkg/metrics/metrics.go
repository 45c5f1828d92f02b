// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "travel_intake"

var (
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by response type",
		},
		[]string{"type"},
	)

	extractionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_failures_total",
			Help:      "Messages the extraction model could not turn into a patch",
		},
	)

	emailShortcuts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_reply_shortcuts_total",
			Help:      "Turns completed by a bare email reply without extraction",
		},
	)

	fulfillmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fulfillments_total",
			Help:      "Completed requests by search result",
		},
		[]string{"result"},
	)

	emailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Package emails by delivery outcome",
		},
		[]string{"sent"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently awaiting information",
		},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordTurn(responseType string) {
	turnsTotal.WithLabelValues(responseType).Inc()
}

func RecordExtractionFailure() {
	extractionFailures.Inc()
}

func RecordEmailShortcut() {
	emailShortcuts.Inc()
}

func RecordFulfillment(found bool) {
	result := "no_results"
	if found {
		result = "package"
	}
	fulfillmentsTotal.WithLabelValues(result).Inc()
}

func RecordEmail(sent bool) {
	emailsTotal.WithLabelValues(strconv.FormatBool(sent)).Inc()
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

func ObserveHTTP(method, route string, status int, seconds float64) {
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}
