package reporter

import (
	"errors"
	"net"
	"sort"

	"github.com/tantalor93/dnsrank/pkg/dnsbench"
)

// BenchmarkResultStats represents results of all servers of the dnsbench.Benchmark execution merged together.
type BenchmarkResultStats struct {
	Codes         map[int]int64
	Timings       []dnsbench.Datapoint
	Counters      dnsbench.Counters
	Errors        []dnsbench.ErrorDatapoint
	GroupedErrors map[string]int
	// Ranked is the number of servers with at least one successful probe.
	Ranked int
}

// Merge takes results of the executed dnsbench.Benchmark and merges them.
func Merge(results []*dnsbench.ServerResult) BenchmarkResultStats {
	totals := BenchmarkResultStats{
		Codes:         make(map[int]int64),
		GroupedErrors: make(map[string]int),
	}

	for _, s := range results {
		for _, err := range s.Errors {
			totals.GroupedErrors[errString(err)]++
		}
		totals.Errors = append(totals.Errors, s.Errors...)

		totals.Timings = append(totals.Timings, s.Timings...)
		for k, v := range s.Codes {
			totals.Codes[k] += v
		}
		totals.Counters = dnsbench.Counters{
			Total:      totals.Counters.Total + s.Counters.Total,
			Success:    totals.Counters.Success + s.Counters.Success,
			Timeout:    totals.Counters.Timeout + s.Counters.Timeout,
			IOError:    totals.Counters.IOError + s.Counters.IOError,
			Malformed:  totals.Counters.Malformed + s.Counters.Malformed,
			IDmismatch: totals.Counters.IDmismatch + s.Counters.IDmismatch,
		}
		if _, ok := s.Min(); ok {
			totals.Ranked++
		}
	}

	// sort data points from the oldest to the earliest, so we can better plot time dependant graphs (like line)
	sort.SliceStable(totals.Timings, func(i, j int) bool {
		return totals.Timings[i].Start.Before(totals.Timings[j].Start)
	})

	sort.SliceStable(totals.Errors, func(i, j int) bool {
		return totals.Errors[i].Start.Before(totals.Errors[j].Start)
	})
	return totals
}

func errString(err dnsbench.ErrorDatapoint) string {
	if err.Err == nil {
		return err.Failure.String()
	}

	var errorString string
	var netOpErr *net.OpError

	switch {
	case err.Failure == dnsbench.FailureTimeout:
		errorString = "timeout"
	case errors.As(err.Err, &netOpErr):
		errorString = netOpErr.Op + " " + netOpErr.Net
		if netOpErr.Addr != nil {
			errorString += " " + netOpErr.Addr.String()
		}
		if netOpErr.Err != nil {
			errorString += ": " + netOpErr.Err.Error()
		}
	default:
		errorString = err.Err.Error()
	}
	return errorString
}
