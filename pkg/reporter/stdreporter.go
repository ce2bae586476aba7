package reporter

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/miekg/dns"
	"github.com/olekukonko/tablewriter"
	"github.com/tantalor93/dnsrank/pkg/dnsbench"
	"github.com/tantalor93/dnsrank/pkg/printutils"
)

type standardReporter struct{}

func (s *standardReporter) print(params reportParameters) error {
	printProgress(params.outputWriter, params.totals.Counters)

	if len(params.totals.Codes) > 0 {
		printutils.NeutralFprintf(params.outputWriter, "\nDNS response codes:\n")
		for i := dns.RcodeSuccess; i <= dns.RcodeBadCookie; i++ {
			printFn := printutils.ErrFprintf
			if i == dns.RcodeSuccess {
				printFn = printutils.SuccessFprintf
			}
			if i == dns.RcodeNameError {
				printFn = printutils.NeutralFprintf
			}
			if c, ok := params.totals.Codes[i]; ok {
				printFn(params.outputWriter, "\t%s:\t%d\n", dns.RcodeToString[i], c)
			}
		}
	}

	printutils.NeutralFprintf(params.outputWriter, "\nTime taken for tests:\t%s\n",
		printutils.HighlightSprint(roundDuration(params.benchmarkDuration)))

	printutils.NeutralFprintf(params.outputWriter,
		"\nDNS servers are ordered from best to worst by their minimum latency, %s of %s servers answered at least once.\n",
		printutils.HighlightSprint(params.totals.Ranked), printutils.HighlightSprint(len(params.results)))
	printRanking(params.outputWriter, params.results)

	if params.benchmark.HistDisplay && len(params.results) > 0 {
		best := params.results[0]
		if tc := best.Hist.TotalCount(); tc > 1 {
			printutils.NeutralFprintf(params.outputWriter, "\nDNS distribution of %s, %s datapoints\n",
				printutils.HighlightSprint(best.Server), printutils.HighlightSprint(tc))
			printBars(params.outputWriter, coarseDistribution(best))
		}
	}

	sumerrs := 0
	for _, v := range params.topErrs.m {
		sumerrs += v
	}

	if len(params.topErrs.m) > 0 {
		printutils.ErrFprintf(params.outputWriter, "\nTotal Errors: %d\n", params.totals.Counters.Failures())
		printutils.ErrFprintf(params.outputWriter, "Top errors:\n")
		for _, err := range params.topErrs.order {
			printutils.ErrFprintf(params.outputWriter, "%s\t%d (%.2f)%%\n", err, params.topErrs.m[err],
				(float64(params.topErrs.m[err])/float64(sumerrs))*100)
		}
	}

	return nil
}

func printProgress(w io.Writer, c dnsbench.Counters) {
	printutils.NeutralFprintf(w, "\nTotal requests:\t\t%s\n", printutils.HighlightSprint(c.Total))

	if c.Success > 0 {
		printutils.SuccessFprintf(w, "DNS responses:\t\t%d\n", c.Success)
	}

	if c.Timeout > 0 {
		printutils.ErrFprintf(w, "Timeouts:\t\t%d\n", c.Timeout)
	}

	if c.IOError > 0 {
		printutils.ErrFprintf(w, "Read/Write errors:\t%d\n", c.IOError)
	}

	if c.Malformed > 0 {
		printutils.ErrFprintf(w, "Malformed responses:\t%d\n", c.Malformed)
	}

	if c.IDmismatch > 0 {
		printutils.ErrFprintf(w, "ID mismatch discarded:\t%d\n", c.IDmismatch)
	}
}

func printRanking(w io.Writer, results []*dnsbench.ServerResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "DNS Server", "Requests", "Errors", "Min", "p50", "p95", "p99", "p99.9", "Max", "EWMA"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetBorder(false)

	for i, r := range results {
		minimum, ok := r.Min()
		table.Append([]string{
			strconv.Itoa(i + 1),
			r.Server.String(),
			strconv.FormatInt(r.Counters.Total, 10),
			strconv.FormatInt(r.Counters.Failures(), 10),
			formatLatency(minimum, ok),
			formatLatency(time.Duration(r.Hist.ValueAtQuantile(50)), ok),
			formatLatency(time.Duration(r.Hist.ValueAtQuantile(95)), ok),
			formatLatency(time.Duration(r.Hist.ValueAtQuantile(99)), ok),
			formatLatency(time.Duration(r.Hist.ValueAtQuantile(99.9)), ok),
			formatLatency(time.Duration(r.Hist.Max()), ok),
			formatLatency(r.EWMA(), ok),
		})
	}
	table.Render()
}

// coarseDistribution buckets timings of the server with a single significant figure, so the printed distribution
// stays short even though the server histogram is precise.
func coarseDistribution(r *dnsbench.ServerResult) []hdrhistogram.Bar {
	hist := hdrhistogram.New(r.Hist.LowestTrackableValue(), r.Hist.HighestTrackableValue(), 1)
	for _, dp := range r.Timings {
		_ = hist.RecordValue(dp.Duration.Nanoseconds())
	}
	return hist.Distribution()
}

func printBars(w io.Writer, bars []hdrhistogram.Bar) {
	counts := make([]int64, 0, len(bars))
	lines := make([][]string, 0, len(bars))
	added := false
	var max int64

	for _, b := range bars {
		if b.Count == 0 && !added {
			// trim the start
			continue
		}
		if b.Count > max {
			max = b.Count
		}

		added = true

		line := make([]string, 3)
		lines = append(lines, line)
		counts = append(counts, b.Count)

		line[0] = roundDuration(time.Duration(b.To/2 + b.From/2)).String()
		line[2] = strconv.FormatInt(b.Count, 10)
	}

	for i, l := range lines {
		l[1] = makeBar(counts[i], max)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Latency", "", "Count"})
	table.SetBorder(false)
	table.AppendBulk(lines)
	table.Render()
}

func makeBar(c int64, max int64) string {
	if c == 0 {
		return ""
	}
	t := int((43 * float64(c) / float64(max)) + 0.5)
	return strings.Repeat(printutils.HighlightSprint("▄"), t)
}
