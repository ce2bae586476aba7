package dnsbench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/miekg/dns"
	"github.com/schollz/progressbar/v3"
	"github.com/tantalor93/dnsrank/pkg/printutils"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/net/idna"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Benchmark is representation of runnable DNS server ranking benchmark scenario.
// Each server is probed Attempts times, starts of two consecutive probes to the same server
// are spaced at least RateLimit apart.
type Benchmark struct {
	// Servers represents the DNS servers to be benchmarked, duplicates are benchmarked independently.
	Servers []netip.AddrPort

	// Domain is the name queried by each probe.
	Domain string

	// Type is the query type, either A or AAAA. Default is DefaultQueryType.
	Type string

	// Attempts is the number of probes issued to each server, must be at least 1.
	Attempts int

	// RateLimit is the minimal duration between starts of two consecutive probes to the same server.
	// Zero disables the spacing.
	RateLimit time.Duration

	// ProbeTimeout is the time to wait for a response to a single probe. Default is DefaultProbeTimeout.
	ProbeTimeout time.Duration

	// Concurrency is the number of servers benchmarked in parallel. Zero means all servers at once.
	Concurrency int

	// Rate is a global limit of probes per second across all servers. Zero means no limit.
	Rate int

	// Recurse sets the RD flag of queries.
	Recurse bool

	// Edns0 enables EDNS0 with specified UDP buffer size.
	Edns0 uint16

	// HistPre is the number of significant figures of latency histograms. Default is DefaultHistPrecision.
	HistPre int

	// RequestLogEnabled controls whether each probe is logged to the RequestLogPath.
	RequestLogEnabled bool

	// RequestLogPath is a path to the request log. Default is DefaultRequestLogPath.
	RequestLogPath string

	// Silent suppresses the benchmark header and progress bar.
	Silent bool

	// JSON suppresses the benchmark header and progress bar, so the report on the same writer stays valid JSON.
	JSON bool

	// Color controls colored output.
	Color bool

	// PlotDir is a path to the directory where plots of the report are exported.
	PlotDir string

	// PlotFormat is a format of exported plots. Default is DefaultPlotFormat.
	PlotFormat string

	// Csv is a path to the file where the report is exported as CSV.
	Csv string

	// HistDisplay controls whether the latency distribution of the best server is printed.
	HistDisplay bool

	// Writer used for printing benchmark progress and reports. Default is os.Stdout.
	Writer io.Writer

	// ProberFactory creates a prober for each server worker. Default creates UDPProber.
	ProberFactory func() Prober

	qtype uint16
}

func (b *Benchmark) init() error {
	if len(b.Servers) == 0 {
		return errors.New("no DNS servers to benchmark")
	}

	if b.Attempts < 1 {
		return fmt.Errorf("number of attempts must be at least 1, got %d", b.Attempts)
	}

	if b.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %s", b.RateLimit)
	}

	if b.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", b.Concurrency)
	}

	if b.Rate < 0 {
		return fmt.Errorf("global rate limit must not be negative, got %d", b.Rate)
	}

	if b.ProbeTimeout < 0 {
		return fmt.Errorf("probe timeout must not be negative, got %s", b.ProbeTimeout)
	}
	if b.ProbeTimeout == 0 {
		b.ProbeTimeout = DefaultProbeTimeout
	}

	domain, err := idna.ToASCII(b.Domain)
	if err != nil {
		return fmt.Errorf("invalid domain name '%s': %w", b.Domain, err)
	}
	domain = dns.Fqdn(domain)
	if _, ok := dns.IsDomainName(domain); !ok || domain == "." {
		return fmt.Errorf("invalid domain name '%s'", b.Domain)
	}
	b.Domain = domain

	if b.Type == "" {
		b.Type = DefaultQueryType
	}
	switch b.Type {
	case "A":
		b.qtype = dns.TypeA
	case "AAAA":
		b.qtype = dns.TypeAAAA
	default:
		return fmt.Errorf("unsupported query type '%s', only A and AAAA are supported", b.Type)
	}

	if b.Edns0 != 0 && (b.Edns0 < 512 || b.Edns0 > 4096) {
		return errors.New("--edns0 must have value between 512 and 4096")
	}

	if b.HistPre == 0 {
		b.HistPre = DefaultHistPrecision
	}
	if b.HistPre < 1 || b.HistPre > 5 {
		return fmt.Errorf("histogram precision must be between 1 and 5, got %d", b.HistPre)
	}

	if b.RequestLogEnabled && len(b.RequestLogPath) == 0 {
		b.RequestLogPath = DefaultRequestLogPath
	}

	if len(b.PlotFormat) == 0 {
		b.PlotFormat = DefaultPlotFormat
	}

	if b.Writer == nil {
		b.Writer = os.Stdout
	}

	if b.ProberFactory == nil {
		b.ProberFactory = func() Prober {
			return NewUDPProber(b.qtype, b.Recurse, b.Edns0)
		}
	}
	return nil
}

// Run executes benchmark, if benchmark is unable to start the error is returned, otherwise ranked results of
// all servers are returned. When ctx is canceled, no further probes are issued and only servers that completed
// all their attempts are part of the results.
func (b *Benchmark) Run(ctx context.Context) ([]*ServerResult, error) {
	if err := b.init(); err != nil {
		return nil, err
	}

	color.NoColor = !b.Color

	var logger *zap.Logger
	if b.RequestLogEnabled {
		l, closer, err := newRequestLogger(b.RequestLogPath)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = closer()
		}()
		logger = l
	}

	concurrency := b.Concurrency
	if concurrency == 0 || concurrency > len(b.Servers) {
		concurrency = len(b.Servers)
	}

	var limit ratelimit.Limiter
	limits := ""
	if b.Rate > 0 {
		limit = ratelimit.New(b.Rate)
		limits = fmt.Sprintf(" (limited to %s QPS overall)", printutils.HighlightSprint(b.Rate))
	}

	if !b.Silent && !b.JSON {
		fmt.Fprintf(b.Writer, "Benchmarking %s servers with %s attempts each, querying %s %s every %s via %s with %s concurrent servers%s\n",
			printutils.HighlightSprint(len(b.Servers)), printutils.HighlightSprint(b.Attempts), printutils.HighlightSprint(b.Type), printutils.HighlightSprint(b.Domain),
			printutils.HighlightSprint(b.RateLimit), printutils.HighlightSprint(UDPTransport), printutils.HighlightSprint(concurrency), limits)
	}

	bar := b.progressBar()

	results := make([]*ServerResult, len(b.Servers))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, server := range b.Servers {
		i, server := i, server // per-iteration copies for go1.21 loop semantics
		g.Go(func() error {
			prober := b.ProberFactory()
			defer func() {
				if c, ok := prober.(io.Closer); ok {
					_ = c.Close()
				}
			}()
			results[i] = b.benchmarkServer(ctx, i, server, prober, limit, logger, bar)
			return nil
		})
	}
	_ = g.Wait()

	if bar != nil {
		_ = bar.Finish()
	}

	completed := make([]*ServerResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			completed = append(completed, r)
		}
	}
	Rank(completed)
	return completed, nil
}

// benchmarkServer issues all attempts to a single server. It returns nil, if the benchmark was canceled
// before all attempts completed.
func (b *Benchmark) benchmarkServer(ctx context.Context, index int, server netip.AddrPort, prober Prober,
	limit ratelimit.Limiter, logger *zap.Logger, bar *progressbar.ProgressBar,
) *ServerResult {
	rs := NewServerResult(index, server, 2*b.ProbeTimeout, b.HistPre)
	serverLabel := server.String()

	// burst of one makes the first attempt immediate and every next one wait for RateLimit since the previous start
	spacing := rate.NewLimiter(rate.Every(b.RateLimit), 1)

	for i := 0; i < b.Attempts; i++ {
		if err := take(ctx, limit); err != nil {
			return nil
		}
		// the per-server token is taken right before the probe, so the spacing is measured from the actual start
		if err := spacing.Wait(ctx); err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		o := prober.Probe(ctx, server, b.Domain, b.ProbeTimeout)
		if ctx.Err() != nil {
			// the attempt was interrupted, the server cannot have complete results anymore
			return nil
		}

		rs.Record(o)
		observeOutcome(serverLabel, o)
		if logger != nil {
			logRequest(logger, index, serverLabel, o)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return rs
}

// take waits for a slot of the global rate limit, it gives up once ctx is canceled.
func take(ctx context.Context, limit ratelimit.Limiter) error {
	if limit == nil {
		return ctx.Err()
	}
	done := make(chan struct{})
	go func() {
		limit.Take()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func observeOutcome(server string, o ProbeOutcome) {
	if !o.Success() {
		probeFailuresTotalMetrics.WithLabelValues(server, o.Failure.String()).Inc()
		return
	}
	probeDurationMetrics.WithLabelValues(server).Observe(o.Duration.Seconds())
	rcode, ok := dns.RcodeToString[o.Rcode]
	if !ok {
		rcode = strconv.Itoa(o.Rcode)
	}
	probeResponseTotalMetrics.WithLabelValues(server, rcode).Inc()
}

func (b *Benchmark) progressBar() *progressbar.ProgressBar {
	if b.Silent || b.JSON {
		return nil
	}
	return progressbar.NewOptions64(
		int64(len(b.Servers)*b.Attempts),
		progressbar.OptionSetWriter(b.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Progress:"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
	)
}
