package reporter

import (
	"math"
	"time"
)

func roundDuration(dur time.Duration) time.Duration {
	if dur > time.Minute {
		return dur.Round(10 * time.Second)
	}
	if dur > time.Second {
		return dur.Round(10 * time.Millisecond)
	}
	if dur > time.Millisecond {
		return dur.Round(10 * time.Microsecond)
	}
	if dur > time.Microsecond {
		return dur.Round(10 * time.Nanosecond)
	}
	return dur
}

// formatLatency renders latency for tables, absent latency of a server without any answer is rendered as dash.
func formatLatency(dur time.Duration, ok bool) string {
	if !ok {
		return "-"
	}
	return roundDuration(dur).String()
}

// milliseconds converts duration to milliseconds with microsecond precision.
func milliseconds(dur time.Duration) float64 {
	return math.Round(float64(dur)/float64(time.Microsecond)) / 1000
}
