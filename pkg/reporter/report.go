package reporter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tantalor93/dnsrank/pkg/dnsbench"
)

type orderedMap struct {
	m     map[string]int
	order []string
}

type reportParameters struct {
	benchmark         *dnsbench.Benchmark
	outputWriter      io.Writer
	results           []*dnsbench.ServerResult
	totals            BenchmarkResultStats
	topErrs           orderedMap
	benchmarkDuration time.Duration
}

type reportPrinter interface {
	print(params reportParameters) error
}

// PrintReport prints the ranking of benchmarked servers, exports graphs and generates CSV output if configured.
// The results are expected to be ranked, as returned by dnsbench.Benchmark.Run.
// If there is a fatal error while printing report, an error is returned.
func PrintReport(b *dnsbench.Benchmark, results []*dnsbench.ServerResult, benchStart time.Time, benchDuration time.Duration) error {
	totals := Merge(results)

	if len(b.PlotDir) != 0 {
		if err := directoryExists(b.PlotDir); err != nil {
			return fmt.Errorf("unable to plot results: %w", err)
		}

		dir := fmt.Sprintf("%s/graphs-%s", b.PlotDir, benchStart.Format("2006-01-02T15-04-05"))
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("unable to plot results: %w", err)
		}
		plotBoxPlotLatency(fileName(b, dir, "latency-boxplot"), results)
		plotBarChartLatency(fileName(b, dir, "latency-barchart"), results)
		plotHistogramLatency(fileName(b, dir, "latency-histogram"), totals.Timings)
		plotErrorRate(fileName(b, dir, "errorrate-lineplot"), benchStart, totals.Errors)
	}

	if b.Csv != "" {
		if err := writeCsv(b.Csv, results); err != nil {
			return err
		}
	}

	if b.Silent {
		return nil
	}

	params := reportParameters{
		benchmark:         b,
		outputWriter:      b.Writer,
		results:           results,
		totals:            totals,
		topErrs:           topErrors(totals.GroupedErrors, 3),
		benchmarkDuration: benchDuration,
	}
	if params.outputWriter == nil {
		params.outputWriter = os.Stdout
	}
	return printer(b).print(params)
}

func topErrors(grouped map[string]int, n int) orderedMap {
	top := make(map[string]int)
	order := make([]string, 0)

	for i := 0; i < n; i++ {
		maxerr := 0
		maxerrstr := ""
		for k, v := range grouped {
			if _, ok := top[k]; !ok && (v > maxerr || (v == maxerr && k < maxerrstr)) {
				maxerrstr = k
				maxerr = v
			}
		}
		if maxerr != 0 {
			top[maxerrstr] = maxerr
			order = append(order, maxerrstr)
		}
	}
	return orderedMap{m: top, order: order}
}

func directoryExists(plotDir string) error {
	stat, err := os.Stat(plotDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("'%s' path does not point to an existing directory", plotDir)
		}
		return err
	} else if !stat.IsDir() {
		return fmt.Errorf("'%s' is not a path to a directory", plotDir)
	}
	return nil
}

func printer(b *dnsbench.Benchmark) reportPrinter {
	switch {
	case b.JSON:
		return &jsonReporter{}
	default:
		return &standardReporter{}
	}
}

func fileName(b *dnsbench.Benchmark, dir, name string) string {
	format := b.PlotFormat
	if format == "" {
		format = dnsbench.DefaultPlotFormat
	}
	return dir + "/" + name + "." + format
}
