package dnsbench

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probeDurationMetrics = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dnsrank",
		Name:      "probe_duration_seconds",
		Help:      "DNS probe round-trip duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 13),
	}, []string{"server"})

	probeResponseTotalMetrics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dnsrank",
		Name:      "probe_response_total",
		Help:      "The total number of DNS responses received by probes",
	}, []string{"server", "rcode"})

	probeFailuresTotalMetrics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dnsrank",
		Name:      "probe_failures_total",
		Help:      "The total number of failed probes",
	}, []string{"server", "failure"})
)
