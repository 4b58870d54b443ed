// Package reconcile walks a normalized policy in dependency order,
// stating and fixing up each resource in turn, and assembles the
// resulting report.Run.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/strandline/warden/pkg/log"
	"github.com/strandline/warden/pkg/metrics"
	"github.com/strandline/warden/pkg/policy"
	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/report"
	"github.com/strandline/warden/pkg/resource"
)

// Driver runs one reconciliation pass over a normalized policy.
type Driver struct {
	logger zerolog.Logger
}

// NewDriver returns a Driver ready to run passes.
func NewDriver() *Driver {
	return &Driver{logger: log.WithComponent("reconcile")}
}

// Run walks resources in the order Normalize produced, statting and
// fixing up each one, propagating Notify to dependents whenever a fixup
// succeeds, and returns the assembled run report. Resources are still
// visited, and the run still completes, when an individual resource's
// Stat or Fixup reports a failure; Run itself only returns an error for
// conditions that make the whole pass meaningless, such as a nil policy.
func (d *Driver) Run(ctx context.Context, order []resource.Resource, pol *policy.Policy, env provider.Env, dryrun bool) (*report.Run, error) {
	if pol == nil {
		return nil, fmt.Errorf("reconcile: nil policy")
	}

	hostname := "unknown"
	if f := env.Facts(); f != nil {
		if h, ok := f.Get("hostname"); ok {
			hostname = h
		}
	}

	run := report.NewRun(uuid.NewString(), hostname, dryrun, time.Now())
	timer := metrics.NewTimer()

	for _, r := range order {
		rlog := log.WithResource(r.ID())

		statTimer := metrics.NewTimer()
		if err := r.Stat(ctx, env); err != nil {
			rlog.Error().Err(err).Msg("stat failed")
			rep := resource.Report{Kind: r.Kind(), Key: r.Key()}
			rep.Add(fmt.Sprintf("stat failed: %v", err), resource.Failed)
			run.Append(rep)
			metrics.ActionsTotal.WithLabelValues(string(r.Kind()), string(resource.Failed)).Inc()
			continue
		}
		statTimer.ObserveDurationVec(metrics.StatDuration, string(r.Kind()))

		rep := r.Fixup(ctx, dryrun, env)
		if rep == nil {
			rep = &resource.Report{Kind: r.Kind(), Key: r.Key()}
		}
		run.Append(*rep)

		for _, a := range rep.Actions {
			metrics.ActionsTotal.WithLabelValues(string(r.Kind()), string(a.Outcome)).Inc()
		}

		if rep.AnySucceeded() {
			for _, dependent := range pol.Dependents(r) {
				dependent.Notify(r)
				metrics.NotificationsTotal.WithLabelValues(string(dependent.Kind())).Inc()
			}
		}
	}

	run.Finish(time.Now())
	timer.ObserveDuration(metrics.ReconciliationDuration)

	result := "clean"
	if run.AnyFailed() {
		result = "failed"
	} else if len(run.ActionCounts()) > 0 {
		result = "changed"
	}
	metrics.ReconciliationRunsTotal.WithLabelValues(result).Inc()

	counts := make(map[string]int)
	different := make(map[string]int)
	for _, r := range order {
		counts[string(r.Kind())]++
		if r.Different() != 0 {
			different[string(r.Kind())]++
		}
	}
	for kind, n := range counts {
		metrics.ResourcesTotal.WithLabelValues(kind).Set(float64(n))
	}
	for kind, n := range different {
		metrics.DifferentResourcesTotal.WithLabelValues(kind).Set(float64(n))
	}

	d.logger.Info().
		Str("run_id", run.ID).
		Int("resources", len(order)).
		Bool("dry_run", dryrun).
		Bool("any_failed", run.AnyFailed()).
		Msg("reconciliation run complete")

	return run, nil
}
