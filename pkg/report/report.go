// Package report defines the run-level report model emitted by a
// reconciliation driver run, and the Sink interface (and two concrete
// sinks) that persist it: SQLiteSink for a central master tracking many
// hosts, and BoltSink for an agent-local embedded store.
package report

import (
	"time"

	"github.com/strandline/warden/pkg/resource"
)

// Run is the ordered collection of per-resource reports produced by one
// reconciliation pass.
type Run struct {
	ID        string
	Host      string
	DryRun    bool
	StartedAt time.Time
	EndedAt   time.Time
	Reports   []resource.Report
}

// NewRun starts a run record. EndedAt is set by Finish.
func NewRun(id, host string, dryrun bool, start time.Time) *Run {
	return &Run{ID: id, Host: host, DryRun: dryrun, StartedAt: start}
}

// Append adds one resource's report to the run, in the order it was
// reconciled.
func (r *Run) Append(rep resource.Report) {
	r.Reports = append(r.Reports, rep)
}

// Finish records the run's end time.
func (r *Run) Finish(end time.Time) {
	r.EndedAt = end
}

// AnyFailed reports whether any action in the run failed, the signal
// "warden apply" uses to choose its exit status.
func (r *Run) AnyFailed() bool {
	for _, rep := range r.Reports {
		if rep.AnyFailed() {
			return true
		}
	}
	return false
}

// ActionCounts tallies actions by outcome across the whole run, for
// logging and metrics.
func (r *Run) ActionCounts() map[resource.Outcome]int {
	counts := make(map[resource.Outcome]int)
	for _, rep := range r.Reports {
		for _, a := range rep.Actions {
			counts[a.Outcome]++
		}
	}
	return counts
}

// Sink is the small store every reconciliation run is persisted through:
// record the host once, then record each run against it.
type Sink interface {
	RecordHost(hostname string) (hostID string, err error)
	RecordRun(hostID string, run *Run) error
	Close() error
}
