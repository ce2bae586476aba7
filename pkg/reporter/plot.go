package reporter

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/tantalor93/dnsrank/pkg/dnsbench"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

func plotHistogramLatency(file string, times []dnsbench.Datapoint) {
	if len(times) == 0 {
		// nothing to plot
		return
	}
	values := latencyValues(times)
	p := plot.New()
	p.Title.Text = "Latencies distribution of all servers"

	hist, err := plotter.NewHist(values, numBins(values))
	if err != nil {
		panic(err)
	}
	p.X.Label.Text = "Latencies (ms)"
	p.X.Tick.Marker = hplot.Ticks{N: 5, Format: "%.0f"}
	p.Y.Label.Text = "Number of requests"
	p.Y.Tick.Marker = hplot.Ticks{N: 5, Format: "%.0f"}
	hist.FillColor = color.RGBA{R: 175, G: 238, B: 238, A: 255}
	p.Add(hist)

	save(p, file)
}

// numBins calculates number of bins for histogram.
func numBins(values plotter.Values) int {
	n := float64(len(values))

	// small dataset
	if n < 100 {
		return max(1, int(math.Min(15, math.Sqrt(n))))
	}

	// medium dataset, Rice's rule
	if n < 1000 {
		return int(math.Min(30, 2*math.Cbrt(n)))
	}

	// large dataset, Doane's rule
	skewness := stat.Skew(values, nil)
	sigmaG := math.Sqrt(6 * (n - 2) / ((n + 1) * (n + 3)))
	doane := 1 + math.Log2(n) + math.Log2(1+math.Abs(skewness)/sigmaG)
	return int(math.Min(50, doane))
}

// plotBoxPlotLatency plots one box per server that answered at least once, in the order of the ranking.
func plotBoxPlotLatency(file string, results []*dnsbench.ServerResult) {
	answered := answeredServers(results)
	if len(answered) == 0 {
		// nothing to plot
		return
	}

	p := plot.New()
	p.Title.Text = "Latencies distribution per server"
	p.Y.Label.Text = "Latencies (ms)"
	p.Y.Tick.Marker = hplot.Ticks{N: 3, Format: "%.0f"}

	names := make([]string, 0, len(answered))
	for i, r := range answered {
		boxplot, err := plotter.NewBoxPlot(vg.Length(40), float64(i), latencyValues(r.Timings))
		if err != nil {
			panic(err)
		}
		boxplot.FillColor = plotutil.SoftColors[i%len(plotutil.SoftColors)]
		p.Add(boxplot)
		names = append(names, r.Server.String())
	}
	p.NominalX(names...)

	save(p, file)
}

// plotBarChartLatency plots minimal and median latency of each server that answered at least once.
func plotBarChartLatency(file string, results []*dnsbench.ServerResult) {
	answered := answeredServers(results)
	if len(answered) == 0 {
		// nothing to plot
		return
	}

	minimums := make(plotter.Values, 0, len(answered))
	medians := make(plotter.Values, 0, len(answered))
	names := make([]string, 0, len(answered))
	for _, r := range answered {
		minimum, _ := r.Min()
		median, err := stats.Median(stats.Float64Data(latencyValues(r.Timings)))
		if err != nil {
			panic(err)
		}
		minimums = append(minimums, milliseconds(minimum))
		medians = append(medians, median)
		names = append(names, r.Server.String())
	}

	p := plot.New()
	p.Title.Text = "Latencies per server"
	p.Y.Label.Text = "Latency (ms)"
	p.Y.Tick.Marker = hplot.Ticks{N: 3, Format: "%.1f"}

	width := vg.Points(20)

	minBars, err := plotter.NewBarChart(minimums, width)
	if err != nil {
		panic(err)
	}
	minBars.Color = plotutil.DarkColors[0]
	minBars.Offset = -width / 2

	medianBars, err := plotter.NewBarChart(medians, width)
	if err != nil {
		panic(err)
	}
	medianBars.Color = plotutil.DarkColors[1]
	medianBars.Offset = width / 2

	p.Add(minBars, medianBars)
	p.Legend.Add("min", minBars)
	p.Legend.Add("p50", medianBars)
	p.Legend.Top = true
	p.NominalX(names...)

	save(p, file)
}

func plotErrorRate(file string, benchStart time.Time, times []dnsbench.ErrorDatapoint) {
	if len(times) == 0 {
		// nothing to plot
		return
	}
	m := make(map[int64]int64)
	for _, v := range times {
		m[v.Start.Unix()-benchStart.Unix()]++
	}

	values := make(plotter.XYs, 0, len(m))
	for k, v := range m {
		values = append(values, plotter.XY{X: float64(k), Y: float64(v)})
	}
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].X < values[j].X
	})

	p := plot.New()
	p.Title.Text = "Failed probes over time"
	p.X.Label.Text = "Time of test (s)"
	p.X.Tick.Marker = hplot.Ticks{N: 3, Format: "%.0f"}
	p.Y.Label.Text = "Number of failed probes (per sec)"
	p.Y.Tick.Marker = hplot.Ticks{N: 3, Format: "%.0f"}

	scatter, err := plotter.NewScatter(values)
	if err != nil {
		panic(err)
	}
	scatter.Color = color.RGBA{R: 238, G: 46, B: 47, A: 255}
	scatter.Shape = draw.CircleGlyph{}
	p.Add(scatter)

	save(p, file)
}

func answeredServers(results []*dnsbench.ServerResult) []*dnsbench.ServerResult {
	var answered []*dnsbench.ServerResult
	for _, r := range results {
		if _, ok := r.Min(); ok && len(r.Timings) > 0 {
			answered = append(answered, r)
		}
	}
	return answered
}

func latencyValues(times []dnsbench.Datapoint) plotter.Values {
	values := make(plotter.Values, 0, len(times))
	for _, v := range times {
		values = append(values, milliseconds(v.Duration))
	}
	return values
}

func save(p *plot.Plot, file string) {
	if err := p.Save(6*vg.Inch, 6*vg.Inch, file); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to save plot.", err)
	}
}
