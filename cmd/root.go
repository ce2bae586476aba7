package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tantalor93/dnsrank/internal/sysutil"
	"github.com/tantalor93/dnsrank/pkg/dnsbench"
	"github.com/tantalor93/dnsrank/pkg/printutils"
	"github.com/tantalor93/dnsrank/pkg/reporter"
)

var (
	// Version is set during release of project during build process.
	Version = "development"

	author = "Ondrej Benkovsky <obenky@gmail.com>"
)

// fileNoBuffer is the number of file descriptors reserved for the process besides worker sockets.
const fileNoBuffer = 20

// options holds command line options that are not part of dnsbench.Benchmark.
type options struct {
	serversFile string
	servers     []string
	port        uint16
	system      bool
	configPath  string
	prometheus  string
}

var (
	pApp = kingpin.New("dnsrank", "Ranks DNS servers by the lowest latency of their answers.").Author(author)

	benchmark dnsbench.Benchmark
	opts      options

	setByUser = make(map[string]*bool)
)

// flag registers flag, which tracks whether it was given on the command line, so config file does not override it.
func flag(name, help string) *kingpin.FlagClause {
	set := new(bool)
	setByUser[name] = set
	return pApp.Flag(name, help).IsSetByUser(set)
}

func isSetByUser(name string) bool {
	set, ok := setByUser[name]
	return ok && *set
}

func init() {
	flag("domain", "Domain name queried on each DNS server, internationalized names are supported.").
		Short('d').PlaceHolder("example.com").StringVar(&benchmark.Domain)

	flag("attempts", "Number of queries sent to each DNS server.").
		Short('a').Default(strconv.Itoa(dnsbench.DefaultAttempts)).IntVar(&benchmark.Attempts)

	flag("file", "File with DNS servers, one IP address per line with optional port, for example '1.1.1.1', '1.1.1.1:5353' or "+
		"'[2606:4700:4700::1111]:53'. Blank lines and lines starting with '#' or ';' are skipped.").
		Short('f').PlaceHolder("/path/to/servers.txt").StringVar(&opts.serversFile)

	flag("rate-limit", "Minimal delay between two queries to the same DNS server, in seconds (e.g. 5, 0.5) or as Go duration (e.g. 500ms).").
		Short('r').Default(strconv.Itoa(int(dnsbench.DefaultRateLimit.Seconds()))).
		SetValue((*secondsValue)(&benchmark.RateLimit))

	flag("timeout", "Time to wait for a response to a single query.").
		Default(dnsbench.DefaultProbeTimeout.String()).DurationVar(&benchmark.ProbeTimeout)

	flag("type", "Query type.").
		Short('t').Default(dnsbench.DefaultQueryType).EnumVar(&benchmark.Type, "A", "AAAA")

	flag("port", "Port of DNS servers which do not specify one.").
		Default(strconv.Itoa(dnsbench.DefaultPort)).Uint16Var(&opts.port)

	flag("recurse", "Allow DNS recursion. Enabled by default.").
		Default("true").BoolVar(&benchmark.Recurse)

	flag("edns0", "Enable EDNS0 with specified size.").Default("0").Uint16Var(&benchmark.Edns0)

	flag("concurrency", "Number of DNS servers benchmarked at once, 0 means all servers at once.").
		Short('c').Default("0").IntVar(&benchmark.Concurrency)

	flag("qps", "Apply a global questions / second rate limit across all DNS servers.").
		Default("0").IntVar(&benchmark.Rate)

	flag("system", "Benchmark also the DNS servers configured in the system.").
		Default("false").BoolVar(&opts.system)

	pApp.Flag("precision", "Significant figure for histogram precision.").
		Default(strconv.Itoa(dnsbench.DefaultHistPrecision)).PlaceHolder("[1-5]").IntVar(&benchmark.HistPre)

	pApp.Flag("distribution", "Display distribution histogram of timings of the best DNS server.").
		Default("false").BoolVar(&benchmark.HistDisplay)

	pApp.Flag("csv", "Export ranking to CSV.").
		Default("").PlaceHolder("/path/to/file.csv").StringVar(&benchmark.Csv)

	pApp.Flag("json", "Report benchmark results as JSON.").BoolVar(&benchmark.JSON)

	pApp.Flag("silent", "Disable stdout.").Default("false").BoolVar(&benchmark.Silent)

	pApp.Flag("color", "ANSI Color output. Enabled by default.").
		Default("true").BoolVar(&benchmark.Color)

	pApp.Flag("plot", "Plot benchmark results and export them to the directory.").
		Default("").PlaceHolder("/path/to/folder").StringVar(&benchmark.PlotDir)

	pApp.Flag("plotf", "Format of graphs. Supported formats: png, jpg.").
		Default(dnsbench.DefaultPlotFormat).EnumVar(&benchmark.PlotFormat, "png", "jpg")

	pApp.Flag("log-requests", "Log each query to the request log file.").
		Default("false").BoolVar(&benchmark.RequestLogEnabled)

	pApp.Flag("log-requests-path", "Path of the request log file.").
		Default(dnsbench.DefaultRequestLogPath).StringVar(&benchmark.RequestLogPath)

	pApp.Flag("prometheus", "Serve Prometheus metrics of the benchmark on the address, for example ':9090'.").
		Default("").PlaceHolder(":9090").StringVar(&opts.prometheus)

	pApp.Flag("config", "YAML file with default values of the benchmark flags, flags given on the command line take precedence.").
		Default("").PlaceHolder("/path/to/config.yaml").StringVar(&opts.configPath)
}

// Execute starts main logic of command.
func Execute() {
	pApp.Version(Version)
	kingpin.MustParse(pApp.Parse(os.Args[1:]))

	if err := prepare(&benchmark, &opts); err != nil {
		printutils.ErrFprintf(os.Stderr, "There was an error while preparing benchmark: %s\n", err.Error())
		os.Exit(1)
	}

	if len(opts.prometheus) != 0 {
		go servePrometheus(opts.prometheus)
	}

	sigsInt := make(chan os.Signal, 8)
	signal.Notify(sigsInt, syscall.SIGINT)

	defer close(sigsInt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_, ok := <-sigsInt
		if !ok {
			// standard exit based on channel close
			return
		}
		fmt.Fprintf(os.Stderr, "\nCancelling benchmark ^C, again to terminate now.\n")
		cancel()
		<-sigsInt
		os.Exit(1)
	}()

	start := time.Now()
	res, err := benchmark.Run(ctx)
	end := time.Now()

	if err != nil {
		printutils.ErrFprintf(os.Stderr, "There was an error while starting benchmark: %s\n", err.Error())
		os.Exit(1)
	}
	if err := reporter.PrintReport(&benchmark, res, start, end.Sub(start)); err != nil {
		printutils.ErrFprintf(os.Stderr, "There was an error while printing report: %s\n", err.Error())
		os.Exit(1)
	}
}

// prepare merges the config file into the parsed flags, loads the DNS servers and checks the process limits.
func prepare(b *dnsbench.Benchmark, o *options) error {
	if len(o.configPath) != 0 {
		cfg, err := LoadConfig(o.configPath)
		if err != nil {
			return err
		}
		if err := cfg.apply(b, o, isSetByUser); err != nil {
			return err
		}
	}

	if len(b.Domain) == 0 {
		return errors.New("domain to query is required, provide it using --domain flag or in the config file")
	}

	servers, err := loadServers(o)
	if err != nil {
		return err
	}
	b.Servers = servers

	lim, err := sysutil.RlimitNofile()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Cannot check limit of number of files. Skipping check. Please make sure it is sufficient manually.", err)
		return nil
	}
	if c := capConcurrency(b.Concurrency, len(b.Servers), lim); c != b.Concurrency {
		fmt.Fprintf(os.Stderr, "Current process limit for number of files is %d, benchmarking at most %d DNS servers at once.\n", lim, c)
		b.Concurrency = c
	}
	return nil
}

// loadServers collects DNS servers from the servers file, config file and system configuration, in this order.
func loadServers(o *options) ([]netip.AddrPort, error) {
	var servers []netip.AddrPort
	if len(o.serversFile) != 0 {
		fromFile, err := dnsbench.ReadServersFile(o.serversFile, o.port)
		if err != nil {
			return nil, err
		}
		servers = append(servers, fromFile...)
	}

	for _, s := range o.servers {
		server, err := dnsbench.ParseServer(s, o.port)
		if err != nil {
			return nil, fmt.Errorf("invalid DNS server in config: %w", err)
		}
		servers = append(servers, server)
	}

	if o.system {
		servers = append(servers, dnsbench.SystemNameServers(o.port)...)
	}

	if len(servers) == 0 {
		return nil, errors.New("no DNS servers to benchmark, provide them using --file flag, in the config file or use --system flag")
	}
	return servers, nil
}

// capConcurrency returns the number of servers benchmarked at once, so that each worker socket fits
// into the limit of open files.
func capConcurrency(concurrency, servers int, limit uint64) int {
	workers := concurrency
	if workers == 0 || workers > servers {
		workers = servers
	}
	available := 1
	if limit > fileNoBuffer+1 {
		available = int(min(limit-fileNoBuffer, uint64(servers)))
	}
	if workers > available {
		return available
	}
	return concurrency
}

func servePrometheus(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		printutils.ErrFprintf(os.Stderr, "Failed to serve Prometheus metrics on '%s': %s\n", addr, err.Error())
	}
}
