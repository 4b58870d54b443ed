// Package metrics exposes warden's Prometheus metrics: declared and
// differing resource counts by kind, fixup actions by kind and outcome,
// reconciliation run duration and count, and a generic Timer helper used
// throughout the reconciliation path to time individual operations.
//
// Collector samples a ResourceCounter (such as a policy) on a
// ticker and publishes the snapshot as gauges, independent of whatever
// triggered the underlying reconciliation. HealthHandler, ReadyHandler, and
// LivenessHandler expose process health for an orchestrator's probes.
package metrics
