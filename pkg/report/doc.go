// Package report persists the output of a reconciliation run.
//
// A Run is the in-memory aggregate a driver fills in as it walks a
// policy's resources; a Sink is where that aggregate ends up. Two sinks
// are provided: SQLiteSink, a central database keyed by host for a
// master tracking a whole fleet, and BoltSink, an embedded per-host
// database for an agent running without (or alongside) a master.
package report
