package dnsbench

import (
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func Test_observeOutcome(t *testing.T) {
	server := "192.0.2.1:53"

	observeOutcome(server, ProbeOutcome{Duration: 10 * time.Millisecond, Rcode: dns.RcodeServerFailure})
	observeOutcome(server, ProbeOutcome{Duration: 12 * time.Millisecond, Rcode: dns.RcodeSuccess})
	observeOutcome(server, ProbeOutcome{Failure: FailureTimeout})
	observeOutcome(server, ProbeOutcome{Rcode: 4000})

	assert.InDelta(t, 1, testutil.ToFloat64(probeResponseTotalMetrics.WithLabelValues(server, "SERVFAIL")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(probeResponseTotalMetrics.WithLabelValues(server, "NOERROR")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(probeResponseTotalMetrics.WithLabelValues(server, "4000")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(probeFailuresTotalMetrics.WithLabelValues(server, "timeout")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(probeFailuresTotalMetrics.WithLabelValues(server, "network")), 0)
}
