// Package policy implements the Policy container: a set of resources keyed
// by (kind, key), the dependency graph between them, and the topological
// ordering the reconciliation driver walks.
package policy

import (
	"fmt"

	"github.com/strandline/warden/pkg/resource"
)

// Policy holds every resource declared for one host, plus the dependency
// edges synthesized or declared among them.
type Policy struct {
	order     []resource.Resource // insertion order, used as topo tie-break
	byID      map[string]resource.Resource
	byKind    map[resource.Kind][]resource.Resource
	deps      []Dependency
	normed    bool
}

// Dependency is a directed edge: Dependent must be reconciled after
// Provider.
type Dependency struct {
	Dependent string // resource ID
	Provider  string // resource ID
}

// New returns an empty policy.
func New() *Policy {
	return &Policy{
		byID:   make(map[string]resource.Resource),
		byKind: make(map[resource.Kind][]resource.Resource),
	}
}

// Add registers a resource with the policy. Resources must be added
// before Normalize is called.
func (p *Policy) Add(r resource.Resource) error {
	if p.normed {
		return fmt.Errorf("policy: cannot add resource %s after normalize", r.ID())
	}
	if _, exists := p.byID[r.ID()]; exists {
		return fmt.Errorf("policy: duplicate resource %s", r.ID())
	}
	p.byID[r.ID()] = r
	p.byKind[r.Kind()] = append(p.byKind[r.Kind()], r)
	p.order = append(p.order, r)
	return nil
}

// Resources returns every resource in insertion order.
func (p *Policy) Resources() []resource.Resource {
	out := make([]resource.Resource, len(p.order))
	copy(out, p.order)
	return out
}

// Find linearly scans resources of kind and returns the first whose
// Match(attr, value) is true.
func (p *Policy) Find(kind resource.Kind, attr, value string) (resource.Resource, bool) {
	for _, r := range p.byKind[kind] {
		if r.Match(attr, value) {
			return r, true
		}
	}
	return nil, false
}

// AddDependency inserts an edge; duplicates are ignored.
func (p *Policy) AddDependency(dependentID, providerID string) {
	for _, d := range p.deps {
		if d.Dependent == dependentID && d.Provider == providerID {
			return
		}
	}
	p.deps = append(p.deps, Dependency{Dependent: dependentID, Provider: providerID})
}

// Dependencies returns every declared dependency edge.
func (p *Policy) Dependencies() []Dependency {
	out := make([]Dependency, len(p.deps))
	copy(out, p.deps)
	return out
}

// Dependents returns the resources that declared a dependency on r.
func (p *Policy) Dependents(r resource.Resource) []resource.Resource {
	var out []resource.Resource
	for _, d := range p.deps {
		if d.Provider == r.ID() {
			if dep, ok := p.byID[d.Dependent]; ok {
				out = append(out, dep)
			}
		}
	}
	return out
}

// Normalize calls Norm on every resource (which may add further
// dependencies) and then computes a topological order. It may only be
// called once.
func (p *Policy) Normalize(facts map[string]string) ([]resource.Resource, error) {
	if p.normed {
		return nil, fmt.Errorf("policy: already normalized")
	}
	for _, r := range p.order {
		if err := r.Norm(p, facts); err != nil {
			return nil, fmt.Errorf("policy: norm %s: %w", r.ID(), err)
		}
	}
	p.normed = true
	order, err := topoSort(p.order, p.deps)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ResourceCounts implements metrics.ResourceCounter: declared resources by
// kind.
func (p *Policy) ResourceCounts() map[string]int {
	counts := make(map[string]int)
	for kind, rs := range p.byKind {
		counts[string(kind)] = len(rs)
	}
	return counts
}

// DifferentCounts implements metrics.ResourceCounter: resources with at
// least one differing attribute as of their last Stat.
func (p *Policy) DifferentCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range p.order {
		if r.Different() != 0 {
			counts[string(r.Kind())]++
		}
	}
	return counts
}
