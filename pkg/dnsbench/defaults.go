package dnsbench

import (
	"time"
)

const (
	// DefaultAttempts is a default number of probes issued to each server.
	DefaultAttempts = 10

	// DefaultRateLimit is a default minimal spacing between starts of two consecutive probes to the same server.
	DefaultRateLimit = 5 * time.Second

	// DefaultProbeTimeout is a default time to wait for a response to a single probe.
	DefaultProbeTimeout = 3 * time.Second

	// DefaultWriteTimeout is a default write timeout.
	DefaultWriteTimeout = time.Second

	// DefaultPort is a default DNS port used for servers without explicit port.
	DefaultPort = 53

	// DefaultRequestLogPath is a default path to the file, where the requests will be logged.
	DefaultRequestLogPath = "requests.log"

	// DefaultPlotFormat is a default format for plots.
	DefaultPlotFormat = "png"

	// DefaultQueryType is a default type for queries if no other is specified.
	DefaultQueryType = "A"

	// DefaultHistPrecision is a default precision for histogram.
	DefaultHistPrecision = 3

	// UDPTransport represents plain DNS over UDP, the only transport used for probing.
	UDPTransport = "udp"
)
