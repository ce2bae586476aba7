package reporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tantalor93/dnsrank/pkg/dnsbench"
)

var csvHeader = []string{
	"rank", "server", "requests", "successes", "timeouts", "ioErrors", "malformed", "idMismatch",
	"minMs", "p50Ms", "p95Ms", "p99Ms", "maxMs", "ewmaMs",
}

// writeCsv exports the ranking as CSV, latencies of servers without any answer are left empty.
func writeCsv(path string, results []*dnsbench.ServerResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file '%s': %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV file '%s': %w", path, err)
	}
	for i, r := range results {
		if err := w.Write(csvRow(i+1, r)); err != nil {
			return fmt.Errorf("failed to write CSV file '%s': %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write CSV file '%s': %w", path, err)
	}
	return f.Close()
}

func csvRow(rank int, r *dnsbench.ServerResult) []string {
	row := []string{
		strconv.Itoa(rank),
		r.Server.String(),
		strconv.FormatInt(r.Counters.Total, 10),
		strconv.FormatInt(r.Counters.Success, 10),
		strconv.FormatInt(r.Counters.Timeout, 10),
		strconv.FormatInt(r.Counters.IOError, 10),
		strconv.FormatInt(r.Counters.Malformed, 10),
		strconv.FormatInt(r.Counters.IDmismatch, 10),
	}
	minimum, ok := r.Min()
	if !ok {
		return append(row, "", "", "", "", "", "")
	}
	return append(row,
		formatMs(minimum),
		formatMs(time.Duration(r.Hist.ValueAtQuantile(50))),
		formatMs(time.Duration(r.Hist.ValueAtQuantile(95))),
		formatMs(time.Duration(r.Hist.ValueAtQuantile(99))),
		formatMs(time.Duration(r.Hist.Max())),
		formatMs(r.EWMA()),
	)
}

func formatMs(d time.Duration) string {
	return strconv.FormatFloat(milliseconds(d), 'f', 3, 64)
}
