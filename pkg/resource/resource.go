// Package resource implements the polymorphic resource protocol: the
// operations (key, set, match, norm, stat, fixup, pack, unpack, notify)
// that every resource kind satisfies, with construction done by the New*
// functions and no explicit free operation, and the eight concrete kinds
// (User, Group, File, Dir, Package, Service, Host, Sysctl) that implement
// them. It is the sole contract consumed by the reconciliation driver.
package resource

import (
	"context"

	"github.com/strandline/warden/pkg/provider"
)

// Kind names one of the closed set of resource kinds.
type Kind string

const (
	KindUser    Kind = "User"
	KindGroup   Kind = "Group"
	KindFile    Kind = "File"
	KindDir     Kind = "Dir"
	KindPackage Kind = "Package"
	KindService Kind = "Service"
	KindHost    Kind = "Host"
	KindSysctl  Kind = "Sysctl"
)

// Outcome is the result of one fixup Action.
type Outcome string

const (
	Succeeded Outcome = "SUCCEEDED"
	Failed    Outcome = "FAILED"
	Skipped   Outcome = "SKIPPED"
)

// Action records one decision point of a fixup pass.
type Action struct {
	Summary string
	Outcome Outcome
}

// Report is the ordered list of Actions taken for one resource's fixup.
type Report struct {
	Kind    Kind
	Key     string
	Actions []Action
}

// Add appends an Action to the report.
func (r *Report) Add(summary string, outcome Outcome) {
	r.Actions = append(r.Actions, Action{Summary: summary, Outcome: outcome})
}

// AnySucceeded reports whether any Action completed successfully, which
// is the driver's signal to notify dependents.
func (r *Report) AnySucceeded() bool {
	for _, a := range r.Actions {
		if a.Outcome == Succeeded {
			return true
		}
	}
	return false
}

// AnyFailed reports whether any Action failed; a run with any failed
// Action makes "warden apply" exit with an error.
func (r *Report) AnyFailed() bool {
	for _, a := range r.Actions {
		if a.Outcome == Failed {
			return true
		}
	}
	return false
}

// Normalizer is the subset of the policy container a resource's Norm needs:
// looking up other resources to resolve references such as "owner=alice",
// and declaring that this resource depends on another.
type Normalizer interface {
	Find(kind Kind, attr, value string) (Resource, bool)
	AddDependency(dependentKey, providerKey string)
}

// Resource is the contract every kind satisfies. Kinds are constructed by
// the New* functions in this package rather than through this interface.
type Resource interface {
	Kind() Kind
	Key() string
	ID() string // "kind:key"

	Set(name, value string) error
	Match(name, value string) bool
	Norm(pol Normalizer, facts map[string]string) error
	Stat(ctx context.Context, env provider.Env) error
	Fixup(ctx context.Context, dryrun bool, env provider.Env) *Report
	Pack() []byte
	Unpack(data []byte) error
	Notify(dep Resource)

	// Enforced and Different expose the attribute bitsets for callers that
	// need to inspect them without a full type switch (metrics, tests).
	Enforced() Flags
	Different() Flags
}
