package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tantalor93/dnsrank/pkg/dnsbench"
)

func TestPrintReport_standard(t *testing.T) {
	color.NoColor = true
	buf := bytes.Buffer{}
	b := dnsbench.Benchmark{Domain: "example.org.", Type: "A", Attempts: 2, RateLimit: 5 * time.Second, Writer: &buf}

	err := PrintReport(&b, testResults(), testStart, time.Second)

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Total requests:\t\t6\n")
	assert.Contains(t, out, "DNS responses:\t\t3\n")
	assert.Contains(t, out, "Timeouts:\t\t1\n")
	assert.Contains(t, out, "Read/Write errors:\t2\n")
	assert.Contains(t, out, "\tNOERROR:\t2\n")
	assert.Contains(t, out, "\tNXDOMAIN:\t1\n")
	assert.Contains(t, out, "Time taken for tests:\t1s\n")
	assert.Contains(t, out, "2 of 3 servers answered at least once.")
	assert.Contains(t, out, "Total Errors: 3\n")
	assert.Contains(t, out, "read udp: connection refused\t2 (66.67)%\n")
	assert.Contains(t, out, "timeout\t1 (33.33)%\n")

	fast := strings.Index(out, fastServer.String())
	slow := strings.Index(out, slowServer.String())
	broken := strings.Index(out, brokenServer.String())
	require.NotEqual(t, -1, fast)
	assert.Less(t, fast, slow)
	assert.Less(t, slow, broken)
	assert.Contains(t, out, "8ms")
	assert.Contains(t, out, "18ms")
	assert.NotContains(t, out, "DNS distribution of")
}

func TestPrintReport_distribution(t *testing.T) {
	color.NoColor = true
	buf := bytes.Buffer{}
	b := dnsbench.Benchmark{HistDisplay: true, Writer: &buf}

	err := PrintReport(&b, testResults(), testStart, time.Second)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "DNS distribution of 127.0.0.1:53, 2 datapoints\n")
	assert.Contains(t, buf.String(), "▄")
}

func TestPrintReport_json(t *testing.T) {
	buf := bytes.Buffer{}
	b := dnsbench.Benchmark{Domain: "example.org.", Type: "A", Attempts: 2, RateLimit: 5 * time.Second, JSON: true, Writer: &buf}

	err := PrintReport(&b, testResults(), testStart, 1500*time.Millisecond)
	require.NoError(t, err)

	var res jsonResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))

	assert.Equal(t, "example.org.", res.Domain)
	assert.Equal(t, "A", res.QueryType)
	assert.Equal(t, 2, res.Attempts)
	assert.InDelta(t, 5.0, res.RateLimitSeconds, 1e-9)
	assert.EqualValues(t, 6, res.TotalRequests)
	assert.EqualValues(t, 3, res.TotalSuccessResponses)
	assert.EqualValues(t, 1, res.TotalTimeouts)
	assert.EqualValues(t, 2, res.TotalIOErrors)
	assert.InDelta(t, 1.5, res.BenchmarkDurationSeconds, 1e-9)

	require.Len(t, res.Servers, 3)

	best := res.Servers[0]
	assert.Equal(t, 1, best.Rank)
	assert.Equal(t, fastServer.String(), best.Server)
	assert.EqualValues(t, 2, best.Successes)
	assert.Equal(t, map[string]int64{"NOERROR": 1, "NXDOMAIN": 1}, best.ResponseRcodes)
	require.NotNil(t, best.LatencyStats)
	assert.InDelta(t, 8.0, best.LatencyStats.MinMs, 1e-9)
	assert.InDelta(t, 10.0, best.LatencyStats.MaxMs, 0.01)

	assert.Equal(t, slowServer.String(), res.Servers[1].Server)
	assert.EqualValues(t, 1, res.Servers[1].Failures)
	require.NotNil(t, res.Servers[1].LatencyStats)
	assert.InDelta(t, 18.0, res.Servers[1].LatencyStats.MinMs, 1e-9)

	worst := res.Servers[2]
	assert.Equal(t, 3, worst.Rank)
	assert.Equal(t, brokenServer.String(), worst.Server)
	assert.EqualValues(t, 2, worst.IOErrors)
	assert.Nil(t, worst.LatencyStats)
	assert.Empty(t, worst.ResponseRcodes)
}

func TestPrintReport_csv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.csv")
	b := dnsbench.Benchmark{Csv: path, Silent: true}

	err := PrintReport(&b, testResults(), testStart, time.Second)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"1", "127.0.0.1:53", "2", "2", "0", "0", "0", "0"}, rows[1][:8])
	assert.Equal(t, "8.000", rows[1][8])
	assert.Equal(t, []string{"2", "127.0.0.2:53", "2", "1", "1", "0", "0", "0", "18.000"}, rows[2][:9])
	assert.Equal(t, []string{"3", "127.0.0.3:53", "2", "0", "0", "2", "0", "0", "", "", "", "", "", ""}, rows[3])
}

func TestPrintReport_csvInvalidPath(t *testing.T) {
	b := dnsbench.Benchmark{Csv: filepath.Join(t.TempDir(), "missing", "ranking.csv"), Silent: true}

	err := PrintReport(&b, testResults(), testStart, time.Second)

	require.Error(t, err)
}

func TestPrintReport_plots(t *testing.T) {
	dir := t.TempDir()
	b := dnsbench.Benchmark{PlotDir: dir, PlotFormat: "png", Silent: true}

	err := PrintReport(&b, testResults(), testStart, time.Second)
	require.NoError(t, err)

	graphsDir := filepath.Join(dir, "graphs-2024-01-01T10-00-00")
	for _, name := range []string{"latency-boxplot.png", "latency-barchart.png", "latency-histogram.png", "errorrate-lineplot.png"} {
		assert.FileExists(t, filepath.Join(graphsDir, name))
	}
}

func TestPrintReport_plotDirMissing(t *testing.T) {
	b := dnsbench.Benchmark{PlotDir: filepath.Join(t.TempDir(), "missing"), Silent: true}

	err := PrintReport(&b, testResults(), testStart, time.Second)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not point to an existing directory")
}

func TestPrintReport_silent(t *testing.T) {
	buf := bytes.Buffer{}
	b := dnsbench.Benchmark{Silent: true, Writer: &buf}

	err := PrintReport(&b, testResults(), testStart, time.Second)

	require.NoError(t, err)
	assert.Empty(t, buf.String())
}
