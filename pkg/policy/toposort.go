package policy

import "github.com/strandline/warden/pkg/resource"

// CyclicDependencyError is returned by Normalize when the dependency graph
// contains a cycle. Cycle lists, in insertion order, every resource ID that
// could not be ordered: the members of a cycle together with any resource
// depending on one of them. The cycle itself is not isolated.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	s := "policy: cyclic dependency:"
	for i, id := range e.Cycle {
		if i > 0 {
			s += " ->"
		}
		s += " " + id
	}
	return s
}

// topoSort runs Kahn's algorithm over resources with edges dependent->
// provider meaning provider must come first. Ties are broken by the
// resources' original insertion order so the result is reproducible.
func topoSort(resources []resource.Resource, deps []Dependency) ([]resource.Resource, error) {
	index := make(map[string]int, len(resources))
	for i, r := range resources {
		index[r.ID()] = i
	}

	// inDegree counts providers-not-yet-placed for each dependent; we walk
	// by placing a resource once every resource it depends on is placed.
	inDegree := make(map[string]int, len(resources))
	dependents := make(map[string][]string) // provider -> dependents
	for _, d := range deps {
		if _, ok := index[d.Dependent]; !ok {
			continue
		}
		if _, ok := index[d.Provider]; !ok {
			continue
		}
		inDegree[d.Dependent]++
		dependents[d.Provider] = append(dependents[d.Provider], d.Dependent)
	}

	var ready []string
	for _, r := range resources {
		if inDegree[r.ID()] == 0 {
			ready = append(ready, r.ID())
		}
	}

	var orderIDs []string
	for len(ready) > 0 {
		// pick the lowest-insertion-index ready node for a stable order
		best := 0
		for i := 1; i < len(ready); i++ {
			if index[ready[i]] < index[ready[best]] {
				best = i
			}
		}
		id := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		orderIDs = append(orderIDs, id)

		for _, dep := range dependents[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(orderIDs) != len(resources) {
		return nil, &CyclicDependencyError{Cycle: remaining(resources, orderIDs)}
	}

	byID := make(map[string]resource.Resource, len(resources))
	for _, r := range resources {
		byID[r.ID()] = r
	}
	out := make([]resource.Resource, len(orderIDs))
	for i, id := range orderIDs {
		out[i] = byID[id]
	}
	return out, nil
}

func remaining(resources []resource.Resource, placed []string) []string {
	done := make(map[string]bool, len(placed))
	for _, id := range placed {
		done[id] = true
	}
	var left []string
	for _, r := range resources {
		if !done[r.ID()] {
			left = append(left, r.ID())
		}
	}
	return left
}
