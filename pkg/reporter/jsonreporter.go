package reporter

import (
	"encoding/json"
	"math"
	"time"

	"github.com/miekg/dns"
	"github.com/tantalor93/dnsrank/pkg/dnsbench"
)

type jsonReporter struct{}

type latencyStats struct {
	MinMs  float64 `json:"minMs"`
	MeanMs float64 `json:"meanMs"`
	StdMs  float64 `json:"stdMs"`
	MaxMs  float64 `json:"maxMs"`
	P50Ms  float64 `json:"p50Ms"`
	P95Ms  float64 `json:"p95Ms"`
	P99Ms  float64 `json:"p99Ms"`
	P999Ms float64 `json:"p999Ms"`
	EwmaMs float64 `json:"ewmaMs"`
}

type jsonServer struct {
	Rank           int              `json:"rank"`
	Server         string           `json:"server"`
	Requests       int64            `json:"requests"`
	Successes      int64            `json:"successes"`
	Failures       int64            `json:"failures"`
	Timeouts       int64            `json:"timeouts"`
	IOErrors       int64            `json:"ioErrors"`
	Malformed      int64            `json:"malformed"`
	IDmismatch     int64            `json:"idMismatch"`
	ResponseRcodes map[string]int64 `json:"responseRcodes,omitempty"`
	LatencyStats   *latencyStats    `json:"latencyStats,omitempty"`
}

type jsonResult struct {
	Domain                   string       `json:"domain"`
	QueryType                string       `json:"queryType"`
	Attempts                 int          `json:"attempts"`
	RateLimitSeconds         float64      `json:"rateLimitSeconds"`
	TotalRequests            int64        `json:"totalRequests"`
	TotalSuccessResponses    int64        `json:"totalSuccessResponses"`
	TotalTimeouts            int64        `json:"totalTimeouts"`
	TotalIOErrors            int64        `json:"totalIOErrors"`
	TotalMalformed           int64        `json:"totalMalformed"`
	TotalIDmismatch          int64        `json:"totalIDmismatch"`
	BenchmarkDurationSeconds float64      `json:"benchmarkDurationSeconds"`
	Servers                  []jsonServer `json:"servers"`
}

func (s *jsonReporter) print(params reportParameters) error {
	servers := make([]jsonServer, 0, len(params.results))
	for i, r := range params.results {
		servers = append(servers, newJSONServer(i+1, r))
	}

	result := jsonResult{
		Domain:                   params.benchmark.Domain,
		QueryType:                params.benchmark.Type,
		Attempts:                 params.benchmark.Attempts,
		RateLimitSeconds:         params.benchmark.RateLimit.Seconds(),
		TotalRequests:            params.totals.Counters.Total,
		TotalSuccessResponses:    params.totals.Counters.Success,
		TotalTimeouts:            params.totals.Counters.Timeout,
		TotalIOErrors:            params.totals.Counters.IOError,
		TotalMalformed:           params.totals.Counters.Malformed,
		TotalIDmismatch:          params.totals.Counters.IDmismatch,
		BenchmarkDurationSeconds: math.Round(params.benchmarkDuration.Seconds()*100) / 100,
		Servers:                  servers,
	}

	return json.NewEncoder(params.outputWriter).Encode(result)
}

func newJSONServer(rank int, r *dnsbench.ServerResult) jsonServer {
	res := jsonServer{
		Rank:       rank,
		Server:     r.Server.String(),
		Requests:   r.Counters.Total,
		Successes:  r.Counters.Success,
		Failures:   r.Counters.Failures(),
		Timeouts:   r.Counters.Timeout,
		IOErrors:   r.Counters.IOError,
		Malformed:  r.Counters.Malformed,
		IDmismatch: r.Counters.IDmismatch,
	}

	if len(r.Codes) > 0 {
		res.ResponseRcodes = make(map[string]int64, len(r.Codes))
		for k, v := range r.Codes {
			res.ResponseRcodes[dns.RcodeToString[k]] += v
		}
	}

	minimum, ok := r.Min()
	if !ok {
		return res
	}
	res.LatencyStats = &latencyStats{
		MinMs:  milliseconds(minimum),
		MeanMs: milliseconds(time.Duration(r.Hist.Mean())),
		StdMs:  milliseconds(time.Duration(r.Hist.StdDev())),
		MaxMs:  milliseconds(time.Duration(r.Hist.Max())),
		P50Ms:  milliseconds(time.Duration(r.Hist.ValueAtQuantile(50))),
		P95Ms:  milliseconds(time.Duration(r.Hist.ValueAtQuantile(95))),
		P99Ms:  milliseconds(time.Duration(r.Hist.ValueAtQuantile(99))),
		P999Ms: milliseconds(time.Duration(r.Hist.ValueAtQuantile(99.9))),
		EwmaMs: milliseconds(r.EWMA()),
	}
	return res
}
