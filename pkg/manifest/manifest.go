// Package manifest loads a YAML policy manifest into a policy.Policy: a
// list of declared resources, each translated into a concrete
// resource.Resource via Resource.Set, the same way the teacher's apply
// command turned a YAML document's spec map into client calls.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/strandline/warden/pkg/policy"
	"github.com/strandline/warden/pkg/resource"
)

// Document is the top-level shape of a manifest file: an ordered list of
// resource declarations.
type Document struct {
	Resources []ResourceSpec `yaml:"resources"`
}

// ResourceSpec is one declared resource: its kind, its natural key, and
// its attribute values, each passed through Resource.Set.
type ResourceSpec struct {
	Kind  string            `yaml:"kind"`
	Key   string            `yaml:"key"`
	Attrs map[string]string `yaml:"attrs"`
}

// Load reads and parses a manifest file, but does not build resources;
// use Apply for that once a Document is in hand.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	return &doc, nil
}

// Apply builds a resource.Resource for every declared spec, via
// Resource.Set for each attribute, and adds it to pol.
func Apply(doc *Document, pol *policy.Policy) error {
	for i, spec := range doc.Resources {
		r, err := newResource(spec.Kind, spec.Key)
		if err != nil {
			return fmt.Errorf("manifest: resource %d (%s %s): %w", i, spec.Kind, spec.Key, err)
		}
		for name, val := range spec.Attrs {
			if err := r.Set(name, val); err != nil {
				return fmt.Errorf("manifest: resource %d (%s %s): set %s=%s: %w", i, spec.Kind, spec.Key, name, val, err)
			}
		}
		if err := pol.Add(r); err != nil {
			return fmt.Errorf("manifest: resource %d (%s %s): %w", i, spec.Kind, spec.Key, err)
		}
	}
	return nil
}

func newResource(kind, key string) (resource.Resource, error) {
	switch resource.Kind(kind) {
	case resource.KindUser:
		return resource.NewUser(key), nil
	case resource.KindGroup:
		return resource.NewGroup(key), nil
	case resource.KindFile:
		return resource.NewFile(key), nil
	case resource.KindDir:
		return resource.NewDir(key), nil
	case resource.KindPackage:
		return resource.NewPackage(key), nil
	case resource.KindService:
		return resource.NewService(key), nil
	case resource.KindHost:
		return resource.NewHost(key), nil
	case resource.KindSysctl:
		return resource.NewSysctl(key), nil
	default:
		return nil, fmt.Errorf("manifest: unknown resource kind %q", kind)
	}
}
