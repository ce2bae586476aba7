package dnsbench

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func rankedResult(index int, server string, outcomes ...ProbeOutcome) *ServerResult {
	rs := NewServerResult(index, netip.MustParseAddrPort(server), 2*DefaultProbeTimeout, DefaultHistPrecision)
	for _, o := range outcomes {
		rs.Record(o)
	}
	return rs
}

func TestRank(t *testing.T) {
	tests := []struct {
		name      string
		results   []*ServerResult
		wantOrder []int
	}{
		{
			name: "ascending by minimum",
			results: []*ServerResult{
				rankedResult(0, "8.8.8.8:53", success(45*time.Millisecond)),
				rankedResult(1, "1.1.1.1:53", success(12*time.Millisecond)),
			},
			wantOrder: []int{1, 0},
		},
		{
			name: "tie keeps input order",
			results: []*ServerResult{
				rankedResult(0, "8.8.8.8:53", success(30*time.Millisecond)),
				rankedResult(1, "1.1.1.1:53", success(30*time.Millisecond)),
				rankedResult(2, "9.9.9.9:53", success(10*time.Millisecond)),
			},
			wantOrder: []int{2, 0, 1},
		},
		{
			name: "tie keeps input order regardless of the order of results",
			results: []*ServerResult{
				rankedResult(1, "1.1.1.1:53", success(30*time.Millisecond)),
				rankedResult(0, "8.8.8.8:53", success(30*time.Millisecond)),
			},
			wantOrder: []int{0, 1},
		},
		{
			name: "failed servers last in input order",
			results: []*ServerResult{
				rankedResult(0, "8.8.8.8:53", timeout()),
				rankedResult(1, "1.1.1.1:53", success(2*time.Second)),
				rankedResult(2, "9.9.9.9:53", timeout(), timeout()),
				rankedResult(3, "8.8.4.4:53", success(time.Millisecond), timeout()),
			},
			wantOrder: []int{3, 1, 0, 2},
		},
		{
			name:      "empty",
			results:   []*ServerResult{},
			wantOrder: []int{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Rank(tt.results)

			order := make([]int, 0, len(tt.results))
			for _, r := range tt.results {
				order = append(order, r.Index)
			}
			assert.Equal(t, tt.wantOrder, order)
		})
	}
}
