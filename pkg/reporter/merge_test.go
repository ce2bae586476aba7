package reporter

import (
	"errors"
	"os"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/tantalor93/dnsrank/pkg/dnsbench"
)

func TestMerge(t *testing.T) {
	totals := Merge(testResults())

	assert.Equal(t, dnsbench.Counters{Total: 6, Success: 3, Timeout: 1, IOError: 2}, totals.Counters)
	assert.Equal(t, map[int]int64{dns.RcodeSuccess: 2, dns.RcodeNameError: 1}, totals.Codes)
	assert.Equal(t, 2, totals.Ranked)
	assert.Equal(t, map[string]int{"read udp: connection refused": 2, "timeout": 1}, totals.GroupedErrors)

	assert.Len(t, totals.Timings, 3)
	for i := 1; i < len(totals.Timings); i++ {
		assert.False(t, totals.Timings[i].Start.Before(totals.Timings[i-1].Start))
	}
	assert.Len(t, totals.Errors, 3)
	for i := 1; i < len(totals.Errors); i++ {
		assert.False(t, totals.Errors[i].Start.Before(totals.Errors[i-1].Start))
	}
}

func TestMerge_empty(t *testing.T) {
	totals := Merge(nil)

	assert.Zero(t, totals.Counters)
	assert.Empty(t, totals.Codes)
	assert.Zero(t, totals.Ranked)
}

func Test_errString(t *testing.T) {
	tests := []struct {
		name string
		err  dnsbench.ErrorDatapoint
		want string
	}{
		{
			name: "timeout",
			err:  dnsbench.ErrorDatapoint{Failure: dnsbench.FailureTimeout, Err: os.ErrDeadlineExceeded},
			want: "timeout",
		},
		{
			name: "network operation",
			err:  dnsbench.ErrorDatapoint{Failure: dnsbench.FailureNetwork, Err: errRefused},
			want: "read udp: connection refused",
		},
		{
			name: "malformed",
			err:  dnsbench.ErrorDatapoint{Failure: dnsbench.FailureMalformed, Err: errors.New("dns: overflow unpacking uint16")},
			want: "dns: overflow unpacking uint16",
		},
		{
			name: "no underlying error",
			err:  dnsbench.ErrorDatapoint{Failure: dnsbench.FailureNetwork},
			want: "network",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errString(tt.err))
		})
	}
}

func Test_topErrors(t *testing.T) {
	grouped := map[string]int{"b": 3, "a": 3, "c": 5, "d": 1}

	top := topErrors(grouped, 3)

	assert.Equal(t, []string{"c", "a", "b"}, top.order)
	assert.Equal(t, map[string]int{"c": 5, "a": 3, "b": 3}, top.m)
}
