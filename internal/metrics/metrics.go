package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"uploadgw/internal/domain"
)

var (
	routingDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploadgw_routing_decisions_total",
			Help: "Routing decisions by route and reason",
		},
		[]string{"route", "reason"},
	)

	uploadErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploadgw_upload_errors_total",
			Help: "Requests answered with an error, by error code",
		},
		[]string{"code"},
	)

	inlineBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uploadgw_inline_bytes_total",
			Help: "Decoded bytes written through the inline path",
		},
	)

	grantsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uploadgw_grants_issued_total",
			Help: "Upload grants issued for deferred uploads",
		},
	)

	storeWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uploadgw_store_write_seconds",
			Help:    "Latency of inline object store writes",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
)

// ObserveDecision counts a classifier verdict.
func ObserveDecision(d domain.RoutingDecision) {
	routingDecisionsTotal.WithLabelValues(string(d.Route), string(d.Reason)).Inc()
}

// ObserveError counts an error response.
func ObserveError(code string) {
	uploadErrorsTotal.WithLabelValues(code).Inc()
}

// ObserveInlineUpload records a completed inline write.
func ObserveInlineUpload(size int64) {
	inlineBytesTotal.Add(float64(size))
}

// ObserveGrant counts an issued grant.
func ObserveGrant() {
	grantsIssuedTotal.Inc()
}

// ObserveStoreWrite records how long a store write took.
func ObserveStoreWrite(start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	storeWriteDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
