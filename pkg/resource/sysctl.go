package resource

import (
	"context"
	"fmt"

	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/value"
)

// Sysctl is the res_sysctl kind. The live and persisted values are read
// and written through the env's Sysctl provider (ReadLive/WriteLive and
// ReadPersisted/WritePersisted), not through the host table. Both are
// diffed and fixed independently.
type Sysctl struct {
	param     string
	enforced  Flags
	different Flags

	value   string
	persist bool

	observedLive      string
	observedPersisted string
	persistedExists   bool
}

// NewSysctl constructs a Sysctl resource keyed by param. Persist defaults
// to on per the schema.
func NewSysctl(param string) *Sysctl {
	return &Sysctl{param: param, persist: true, enforced: SysctlPersist}
}

func (s *Sysctl) Kind() Kind       { return KindSysctl }
func (s *Sysctl) Key() string      { return s.param }
func (s *Sysctl) ID() string       { return fmt.Sprintf("%s:%s", KindSysctl, s.param) }
func (s *Sysctl) Enforced() Flags  { return s.enforced }
func (s *Sysctl) Different() Flags { return s.different }

func (s *Sysctl) Set(name, val string) error {
	switch name {
	case "value":
		s.value = val
		s.enforced |= SysctlValue
	case "persist":
		s.persist = val == "yes" || val == "true"
		if s.persist {
			s.enforced |= SysctlPersist
		} else {
			s.enforced &^= SysctlPersist
		}
	default:
		return &InvalidAttributeError{Kind: KindSysctl, Name: name}
	}
	return nil
}

func (s *Sysctl) Match(name, val string) bool {
	return name == "param" && s.param == val
}

func (s *Sysctl) Norm(pol Normalizer, facts map[string]string) error { return nil }

func (s *Sysctl) Stat(ctx context.Context, env provider.Env) error {
	s.different = 0
	live, err := env.Sysctl().ReadLive(ctx, s.param)
	if err != nil {
		return &ProviderError{Op: "sysctl.read", Detail: s.param, Err: err}
	}
	s.observedLive = live
	if s.enforced.Any(SysctlValue) && live != s.value {
		s.different |= SysctlValue
	}
	if s.enforced.Any(SysctlPersist) {
		persisted, exists, err := env.Sysctl().ReadPersisted(ctx, s.param)
		if err != nil {
			return &ProviderError{Op: "sysctl.read_persisted", Detail: s.param, Err: err}
		}
		s.observedPersisted, s.persistedExists = persisted, exists
		if !exists || persisted != s.value {
			s.different |= SysctlPersist
		}
	}
	return nil
}

func (s *Sysctl) Fixup(ctx context.Context, dryrun bool, env provider.Env) *Report {
	rep := &Report{Kind: KindSysctl, Key: s.param}

	if s.different.Any(SysctlValue) {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else if err := env.Sysctl().WriteLive(ctx, s.param, s.value); err != nil {
			outcome = Failed
		}
		rep.Add(fmt.Sprintf("set %s to %s", s.param, s.value), outcome)
	}
	if s.different.Any(SysctlPersist) {
		outcome := Succeeded
		if dryrun {
			outcome = Skipped
		} else if err := env.Sysctl().WritePersisted(ctx, s.param, s.value); err != nil {
			outcome = Failed
		}
		rep.Add(fmt.Sprintf("persist %s = %s", s.param, s.value), outcome)
	}

	return rep
}

func (s *Sysctl) Pack() []byte {
	w := value.NewWriter("res_sysctl::")
	w.PutString(s.param).PutUint32(uint32(s.enforced)).PutString(s.value)
	return w.Bytes()
}

func (s *Sysctl) Unpack(data []byte) error {
	r, err := value.NewReader(data, "res_sysctl::")
	if err != nil {
		return &CodecError{Where: "sysctl", Err: err}
	}
	var enforced uint32
	if s.param, err = r.GetString(); err == nil {
		enforced, err = r.GetUint32()
	}
	if err == nil {
		s.value, err = r.GetString()
	}
	if err != nil {
		return &CodecError{Where: "sysctl", Err: err}
	}
	s.enforced = Flags(enforced)
	s.persist = s.enforced.Any(SysctlPersist)
	return nil
}

func (s *Sysctl) Notify(dep Resource) {}
