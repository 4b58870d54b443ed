// Package reconcile drives one or repeated reconciliation passes over a
// normalized policy: Driver.Run walks resources in topological order,
// statting and fixing up each, propagating Notify to dependents on
// success, and assembling the resulting report.Run. Agent wraps a
// Driver in a ticker loop for long-running reconciliation, recording
// each run to a report.Sink.
package reconcile
