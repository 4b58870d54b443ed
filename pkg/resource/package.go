package resource

import (
	"context"
	"fmt"

	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/value"
)

// Package is the res_package kind.
type Package struct {
	name      string
	enforced  Flags
	different Flags

	version string

	installedVersion string
	installed        bool
}

// NewPackage constructs a Package resource keyed by name.
func NewPackage(name string) *Package {
	return &Package{name: name}
}

func (p *Package) Kind() Kind       { return KindPackage }
func (p *Package) Key() string      { return p.name }
func (p *Package) ID() string       { return fmt.Sprintf("%s:%s", KindPackage, p.name) }
func (p *Package) Enforced() Flags  { return p.enforced }
func (p *Package) Different() Flags { return p.different }

func (p *Package) Set(name, val string) error {
	switch name {
	case "present":
		if val == "no" || val == "false" {
			p.enforced |= FlagAbsent
		} else {
			p.enforced &^= FlagAbsent
		}
	case "version":
		p.version = val
		p.enforced |= PackageVersion
	default:
		return &InvalidAttributeError{Kind: KindPackage, Name: name}
	}
	return nil
}

func (p *Package) Match(name, val string) bool {
	return name == "name" && p.name == val
}

func (p *Package) Norm(pol Normalizer, facts map[string]string) error { return nil }

func (p *Package) Stat(ctx context.Context, env provider.Env) error {
	version, installed, err := env.Packages().Version(ctx, p.name)
	if err != nil {
		return &ProviderError{Op: "package.version", Detail: p.name, Err: err}
	}
	p.installedVersion, p.installed = version, installed
	p.different = 0
	if p.enforced.Has(FlagAbsent) {
		if installed {
			p.different |= FlagAbsent
		}
		return nil
	}
	if !installed {
		p.different = p.enforced &^ FlagAbsent
		return nil
	}
	if p.enforced.Any(PackageVersion) && p.version != "" && version != p.version {
		p.different |= PackageVersion
	}
	return nil
}

func (p *Package) Fixup(ctx context.Context, dryrun bool, env provider.Env) *Report {
	rep := &Report{Kind: KindPackage, Key: p.name}

	if p.enforced.Has(FlagAbsent) {
		if p.different.Has(FlagAbsent) {
			outcome := Succeeded
			if dryrun {
				outcome = Skipped
			} else if err := env.Packages().Remove(ctx, p.name); err != nil {
				outcome = Failed
			}
			rep.Add("remove package", outcome)
		}
		return rep
	}

	if !p.installed {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else if err := env.Packages().Install(ctx, p.name, p.version); err != nil {
			outcome = Failed
		}
		if p.version != "" {
			rep.Add(fmt.Sprintf("install package version %s", p.version), outcome)
		} else {
			rep.Add("install package", outcome)
		}
		return rep
	}

	if p.different.Any(PackageVersion) {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else if err := env.Packages().Install(ctx, p.name, p.version); err != nil {
			outcome = Failed
		}
		rep.Add(fmt.Sprintf("upgrade package to version %s", p.version), outcome)
	}

	return rep
}

func (p *Package) Pack() []byte {
	w := value.NewWriter("res_package::")
	w.PutString(p.name).PutUint32(uint32(p.enforced)).PutString(p.version)
	return w.Bytes()
}

func (p *Package) Unpack(data []byte) error {
	r, err := value.NewReader(data, "res_package::")
	if err != nil {
		return &CodecError{Where: "package", Err: err}
	}
	var enforced uint32
	if p.name, err = r.GetString(); err == nil {
		enforced, err = r.GetUint32()
	}
	if err == nil {
		p.version, err = r.GetString()
	}
	if err != nil {
		return &CodecError{Where: "package", Err: err}
	}
	p.enforced = Flags(enforced)
	return nil
}

func (p *Package) Notify(dep Resource) {}
