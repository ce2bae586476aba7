/*
Package dnsbench contains functionality for ranking plain DNS servers by their responsiveness.
Each benchmark is represented by Benchmark struct that is used to set up the benchmark as desired
and then execute it using Benchmark.Run. Each execution of Benchmark.Run probes every configured server
the configured number of times and returns slice of ServerResult ordered from the fastest server
(smallest minimum latency) to the slowest, with servers that never answered placed last.
*/
package dnsbench
