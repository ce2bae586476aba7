package reporter

import (
	"errors"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/miekg/dns"
	"github.com/tantalor93/dnsrank/pkg/dnsbench"
)

var (
	fastServer   = netip.MustParseAddrPort("127.0.0.1:53")
	slowServer   = netip.MustParseAddrPort("127.0.0.2:53")
	brokenServer = netip.MustParseAddrPort("127.0.0.3:53")

	testStart = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
)

func answer(d time.Duration, rcode int, offset time.Duration) dnsbench.ProbeOutcome {
	return dnsbench.ProbeOutcome{Start: testStart.Add(offset), Duration: d, Rcode: rcode}
}

func failure(f dnsbench.Failure, err error, offset time.Duration) dnsbench.ProbeOutcome {
	return dnsbench.ProbeOutcome{Start: testStart.Add(offset), Failure: f, Err: err}
}

var errRefused = &net.OpError{Op: "read", Net: "udp", Err: errors.New("connection refused")}

// testResults returns ranked results of three servers, the first one answers in 8ms at best, the second one
// answers in 18ms once and times out once, the last one never answers.
func testResults() []*dnsbench.ServerResult {
	broken := dnsbench.NewServerResult(0, brokenServer, 6*time.Second, 3)
	broken.Record(failure(dnsbench.FailureNetwork, errRefused, 0))
	broken.Record(failure(dnsbench.FailureNetwork, errRefused, 5*time.Second))

	slow := dnsbench.NewServerResult(1, slowServer, 6*time.Second, 3)
	slow.Record(answer(18*time.Millisecond, dns.RcodeSuccess, 0))
	slow.Record(failure(dnsbench.FailureTimeout, os.ErrDeadlineExceeded, 5*time.Second))

	fast := dnsbench.NewServerResult(2, fastServer, 6*time.Second, 3)
	fast.Record(answer(10*time.Millisecond, dns.RcodeSuccess, 0))
	fast.Record(answer(8*time.Millisecond, dns.RcodeNameError, 5*time.Second))

	results := []*dnsbench.ServerResult{broken, slow, fast}
	dnsbench.Rank(results)
	return results
}
