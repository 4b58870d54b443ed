package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/strandline/warden/pkg/config"
	"github.com/strandline/warden/pkg/log"
	"github.com/strandline/warden/pkg/manifest"
	"github.com/strandline/warden/pkg/metrics"
	"github.com/strandline/warden/pkg/policy"
	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/reconcile"
	"github.com/strandline/warden/pkg/report"
)

var (
	agentManifestPath string
	agentInterval     time.Duration
	agentDryRun       bool
	agentSinkKind     string
	agentSinkPath     string
	agentMetricsAddr  string
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the reconciliation loop continuously",
	Long: `agent loads a policy manifest once, normalizes it into a
dependency order, and re-runs the stat/fixup cycle on a fixed interval
until interrupted, optionally recording each run to a report sink.`,
	RunE: runAgent,
}

func init() {
	agentCmd.Flags().StringVarP(&agentManifestPath, "file", "f", "", "Path to the policy manifest (required)")
	agentCmd.Flags().DurationVar(&agentInterval, "interval", 5*time.Minute, "Interval between reconciliation runs")
	agentCmd.Flags().BoolVar(&agentDryRun, "dry-run", false, "Report differences without changing anything")
	agentCmd.Flags().StringVar(&agentSinkKind, "sink", "bolt", "Report sink backend: bolt, sqlite, or none")
	agentCmd.Flags().StringVar(&agentSinkPath, "sink-path", "/var/lib/warden", "Path to the report sink's data file (sqlite) or data directory (bolt)")
	agentCmd.Flags().StringVar(&agentMetricsAddr, "metrics-addr", ":9090", "Address to serve Prometheus metrics on")
	agentCmd.MarkFlagRequired("file")
}

func runAgent(cmd *cobra.Command, args []string) error {
	logger := log.WithComponent("agent")

	cfg := config.Agent{
		ManifestPath: agentManifestPath,
		Interval:     agentInterval,
		DryRun:       agentDryRun,
		SinkKind:     agentSinkKind,
		SinkPath:     agentSinkPath,
		MetricsAddr:  agentMetricsAddr,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("agent: %w", err)
	}

	doc, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return fmt.Errorf("agent: %w", err)
	}

	pol := policy.New()
	if err := manifest.Apply(doc, pol); err != nil {
		return fmt.Errorf("agent: %w", err)
	}

	env := provider.NewMemEnv()
	hostname := config.Hostname()
	env.SeedFact("hostname", hostname)

	sink, err := openSink(cfg.SinkKind, cfg.SinkPath)
	if err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if sink != nil {
		defer sink.Close()
	}

	agent, err := reconcile.NewAgent(pol, env, sink, cfg.Interval, cfg.DryRun)
	if err != nil {
		return fmt.Errorf("agent: %w", err)
	}

	metrics.SetVersion(Version)
	metrics.RegisterComponent("policy", true, fmt.Sprintf("%d resources", len(pol.Resources())))

	collector := metrics.NewCollector(pol, cfg.Interval)
	collector.Start()
	defer collector.Stop()

	go serveMetrics(cfg.MetricsAddr, logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	agent.Start(ctx)
	logger.Info().Dur("interval", cfg.Interval).Str("host", hostname).Msg("agent started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	agent.Stop()
	cancel()
	return nil
}

// openSink builds the report.Sink named by kind, or nil for "none".
func openSink(kind, path string) (report.Sink, error) {
	switch kind {
	case "none", "":
		return nil, nil
	case "bolt":
		return report.OpenBoltSink(path)
	case "sqlite":
		return report.OpenSQLiteSink(path)
	default:
		return nil, fmt.Errorf("unknown sink kind %q (want bolt, sqlite, or none)", kind)
	}
}

// serveMetrics exposes Prometheus metrics and basic health endpoints for
// the agent process. It blocks until the listener fails, so it's meant
// to be run in its own goroutine.
func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())

	logger.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}
