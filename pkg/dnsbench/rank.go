package dnsbench

import "sort"

// Rank orders results in place from the best server to the worst. Servers with at least one successful
// probe come first ordered by their minimum round trip, servers without any successful probe come last.
// Ties, including all servers without success, keep the order of ServerResult.Index.
func Rank(results []*ServerResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.hasMin != b.hasMin {
			return a.hasMin
		}
		if a.hasMin && a.min != b.min {
			return a.min < b.min
		}
		return a.Index < b.Index
	})
}
