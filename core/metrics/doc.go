// Package metrics defines the sinks that record planning runs. Sinks like
// PromSink and InfluxSink (in infra/metrics) record one SolveEvent per run and
// can be combined with NewMultiSink. The factory helpers return a MultiSink
// automatically when multiple sinks are configured.
package metrics
