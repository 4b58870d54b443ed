package resource

import (
	"context"
	"fmt"

	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/value"
)

// Service is the res_service kind. RUNNING/STOPPED and ENABLED/DISABLED
// are mutually exclusive pairs; a transient notified bit (set by Notify,
// never serialized, never part of enforced/different) forces a reload on
// the next fixup even when the service is already running as desired.
type Service struct {
	name      string
	enforced  Flags
	different Flags

	running bool
	enabled bool

	observedRunning bool
	observedEnabled bool
	notified        bool
}

// NewService constructs a Service resource keyed by name.
func NewService(name string) *Service {
	return &Service{name: name}
}

func (s *Service) Kind() Kind       { return KindService }
func (s *Service) Key() string      { return s.name }
func (s *Service) ID() string       { return fmt.Sprintf("%s:%s", KindService, s.name) }
func (s *Service) Enforced() Flags  { return s.enforced }
func (s *Service) Different() Flags { return s.different }

func (s *Service) Set(name, val string) error {
	switch name {
	case "running":
		if val == "yes" || val == "true" {
			s.running = true
			s.enforced = s.enforced.Set(ServiceRunning).Clear(ServiceStopped)
		} else {
			s.running = false
			s.enforced = s.enforced.Set(ServiceStopped).Clear(ServiceRunning)
		}
	case "enabled":
		if val == "yes" || val == "true" {
			s.enabled = true
			s.enforced = s.enforced.Set(ServiceEnabled).Clear(ServiceDisabled)
		} else {
			s.enabled = false
			s.enforced = s.enforced.Set(ServiceDisabled).Clear(ServiceEnabled)
		}
	default:
		return &InvalidAttributeError{Kind: KindService, Name: name}
	}
	return nil
}

func (s *Service) Match(name, val string) bool {
	return name == "name" && s.name == val
}

func (s *Service) Norm(pol Normalizer, facts map[string]string) error { return nil }

func (s *Service) Stat(ctx context.Context, env provider.Env) error {
	running, err := env.Services().Running(ctx, s.name)
	if err != nil {
		return &ProviderError{Op: "service.running", Detail: s.name, Err: err}
	}
	enabled, err := env.Services().Enabled(ctx, s.name)
	if err != nil {
		return &ProviderError{Op: "service.enabled", Detail: s.name, Err: err}
	}
	s.observedRunning, s.observedEnabled = running, enabled
	s.different = 0
	if s.enforced.Any(ServiceRunning) && !running {
		s.different |= ServiceRunning
	}
	if s.enforced.Any(ServiceStopped) && running {
		s.different |= ServiceStopped
	}
	if s.enforced.Any(ServiceEnabled) && !enabled {
		s.different |= ServiceEnabled
	}
	if s.enforced.Any(ServiceDisabled) && enabled {
		s.different |= ServiceDisabled
	}
	return nil
}

func (s *Service) Fixup(ctx context.Context, dryrun bool, env provider.Env) *Report {
	rep := &Report{Kind: KindService, Key: s.name}

	if s.different.Any(ServiceEnabled) {
		rep.Add("enable service", s.run(ctx, dryrun, env.Services().Enable))
	}
	if s.different.Any(ServiceDisabled) {
		rep.Add("disable service", s.run(ctx, dryrun, env.Services().Disable))
	}
	if s.different.Any(ServiceRunning) {
		rep.Add("start service", s.run(ctx, dryrun, env.Services().Start))
	}
	if s.different.Any(ServiceStopped) {
		rep.Add("stop service", s.run(ctx, dryrun, env.Services().Stop))
	}
	if s.notified && s.enforced.Any(ServiceRunning) && !s.different.Any(ServiceRunning) {
		rep.Add("reload service", s.run(ctx, dryrun, env.Services().Reload))
		s.notified = false
	}

	return rep
}

func (s *Service) run(ctx context.Context, dryrun bool, fn func(context.Context, string) error) Outcome {
	if dryrun {
		return Skipped
	}
	if err := fn(ctx, s.name); err != nil {
		return Failed
	}
	return Succeeded
}

func (s *Service) Pack() []byte {
	w := value.NewWriter("res_service::")
	w.PutString(s.name).PutUint32(uint32(s.enforced))
	return w.Bytes()
}

func (s *Service) Unpack(data []byte) error {
	r, err := value.NewReader(data, "res_service::")
	if err != nil {
		return &CodecError{Where: "service", Err: err}
	}
	var enforced uint32
	if s.name, err = r.GetString(); err == nil {
		enforced, err = r.GetUint32()
	}
	if err != nil {
		return &CodecError{Where: "service", Err: err}
	}
	s.enforced = Flags(enforced)
	return nil
}

// Notify sets the reload-pending bit so the next fixup issues a reload
// even when the service is already running as desired.
func (s *Service) Notify(dep Resource) {
	s.notified = true
}
