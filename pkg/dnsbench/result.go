package dnsbench

import (
	"net/netip"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/VividCortex/ewma"
)

// Counters represents various counters of probe outcomes of a single server.
type Counters struct {
	// Total is the number of probes issued, failed probes included.
	Total      int64
	Success    int64
	Timeout    int64
	IOError    int64
	Malformed  int64
	IDmismatch int64
}

// Failures is the number of probes that did not measure a round trip.
func (c Counters) Failures() int64 {
	return c.Timeout + c.IOError + c.Malformed
}

// Datapoint one datapoint of benchmark (single successful probe).
type Datapoint struct {
	Duration time.Duration
	Start    time.Time
}

// ErrorDatapoint one datapoint representing single failed probe.
type ErrorDatapoint struct {
	Start   time.Time
	Failure Failure
	Err     error
}

// ServerResult is a representation of benchmark results of single server.
type ServerResult struct {
	Server netip.AddrPort
	// Index is the position of the server in Benchmark.Servers.
	Index int

	Counters Counters
	Codes    map[int]int64
	Hist     *hdrhistogram.Histogram
	Timings  []Datapoint
	Errors   []ErrorDatapoint

	min    time.Duration
	hasMin bool
	avg    ewma.MovingAverage
}

// NewServerResult creates empty results of the server at the given position of the benchmarked servers.
// Latencies above histMax are not part of the histogram.
func NewServerResult(index int, server netip.AddrPort, histMax time.Duration, histPre int) *ServerResult {
	return &ServerResult{
		Server: server,
		Index:  index,
		Codes:  make(map[int]int64),
		Hist:   hdrhistogram.New(1, histMax.Nanoseconds(), histPre),
		avg:    ewma.NewMovingAverage(),
	}
}

// Min returns the smallest round trip observed, the second return value is false if no probe succeeded.
func (rs *ServerResult) Min() (time.Duration, bool) {
	return rs.min, rs.hasMin
}

// EWMA returns exponentially weighted moving average of successful round trips.
func (rs *ServerResult) EWMA() time.Duration {
	if rs.avg == nil {
		return 0
	}
	return time.Duration(rs.avg.Value())
}

// Record folds the outcome of a single probe into the results.
func (rs *ServerResult) Record(o ProbeOutcome) {
	rs.Counters.Total++
	rs.Counters.IDmismatch += o.Mismatched

	switch o.Failure {
	case FailureNone:
	case FailureTimeout:
		rs.Counters.Timeout++
	case FailureMalformed:
		rs.Counters.Malformed++
	default:
		rs.Counters.IOError++
	}
	if !o.Success() {
		rs.Errors = append(rs.Errors, ErrorDatapoint{Start: o.Start, Failure: o.Failure, Err: o.Err})
		return
	}

	rs.Counters.Success++
	if !rs.hasMin || o.Duration < rs.min {
		rs.min = o.Duration
		rs.hasMin = true
	}
	rs.Codes[o.Rcode]++
	if rs.Hist != nil {
		// values above the histogram range are dropped, the running minimum is exact regardless
		_ = rs.Hist.RecordValue(max(o.Duration.Nanoseconds(), 1))
	}
	if rs.avg != nil {
		rs.avg.Add(float64(o.Duration))
	}
	rs.Timings = append(rs.Timings, Datapoint{Duration: o.Duration, Start: o.Start})
}
