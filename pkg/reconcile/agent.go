package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/strandline/warden/pkg/log"
	"github.com/strandline/warden/pkg/policy"
	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/report"
	"github.com/strandline/warden/pkg/resource"
)

// Agent repeats a Driver pass over a fixed, already-normalized resource
// order on a fixed interval until stopped, recording each run's report
// to a sink. The policy's dependency graph and topological order are
// computed once at construction, not per tick: resources reconciled
// between ticks are the same declarations restated, not a new policy.
type Agent struct {
	driver   *Driver
	order    []resource.Resource
	pol      *policy.Policy
	env      provider.Env
	sink     report.Sink
	interval time.Duration
	dryrun   bool

	logger zerolog.Logger
	mu     sync.Mutex
	stopCh chan struct{}
}

// NewAgent normalizes pol once and returns an Agent that reconciles the
// resulting order against env every interval, recording runs to sink.
func NewAgent(pol *policy.Policy, env provider.Env, sink report.Sink, interval time.Duration, dryrun bool) (*Agent, error) {
	order, err := pol.Normalize(nil)
	if err != nil {
		return nil, fmt.Errorf("reconcile: normalize: %w", err)
	}
	return &Agent{
		driver:   NewDriver(),
		order:    order,
		pol:      pol,
		env:      env,
		sink:     sink,
		interval: interval,
		dryrun:   dryrun,
		logger:   log.WithComponent("agent"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins the reconciliation loop in its own goroutine.
func (a *Agent) Start(ctx context.Context) {
	go a.run(ctx)
}

// Stop signals the loop to exit.
func (a *Agent) Stop() {
	close(a.stopCh)
}

func (a *Agent) run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info().Dur("interval", a.interval).Msg("agent started")

	for {
		select {
		case <-ticker.C:
			if err := a.tick(ctx); err != nil {
				a.logger.Error().Err(err).Msg("reconciliation cycle failed")
			}
		case <-a.stopCh:
			a.logger.Info().Msg("agent stopped")
			return
		case <-ctx.Done():
			a.logger.Info().Msg("agent stopped: context canceled")
			return
		}
	}
}

func (a *Agent) tick(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	run, err := a.driver.Run(ctx, a.order, a.pol, a.env, a.dryrun)
	if err != nil {
		return err
	}

	if a.sink != nil {
		hostID, err := a.sink.RecordHost(run.Host)
		if err != nil {
			return err
		}
		if err := a.sink.RecordRun(hostID, run); err != nil {
			return err
		}
	}

	return nil
}
