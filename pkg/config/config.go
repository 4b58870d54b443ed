// Package config holds the small set of run-time settings the warden CLI
// binds from flags: where state
// lives, which report sink to use, and how often the agent reconciles.
// Flag parsing itself stays in cobra; this package only gives the
// resulting values a typed home so they can be passed around without a
// *cobra.Command in scope.
package config

import (
	"fmt"
	"os"
	"time"
)

// Agent holds the settings for one "warden agent" run.
type Agent struct {
	ManifestPath string
	Interval     time.Duration
	DryRun       bool
	SinkKind     string
	SinkPath     string
	MetricsAddr  string
}

// Validate checks what a flag parser can't catch on its own: that a
// manifest path is given, the interval is positive, and the sink kind is
// one of bolt, sqlite or none.
func (a Agent) Validate() error {
	if a.ManifestPath == "" {
		return fmt.Errorf("config: manifest path is required")
	}
	if a.Interval <= 0 {
		return fmt.Errorf("config: interval must be positive, got %s", a.Interval)
	}
	switch a.SinkKind {
	case "none", "bolt", "sqlite":
	default:
		return fmt.Errorf("config: unknown sink kind %q (want bolt, sqlite, or none)", a.SinkKind)
	}
	return nil
}

// Hostname resolves the host's name for fact-seeding and run records,
// falling back to "localhost" when the OS call fails (e.g. in a
// restricted container).
func Hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return name
}
