package resource

import (
	"context"
	"testing"

	"github.com/strandline/warden/pkg/provider"
)

func TestServiceStartAndEnableScenario(t *testing.T) {
	env := provider.NewMemEnv()
	s := NewService("nginx")
	must(t, s.Set("running", "yes"))
	must(t, s.Set("enabled", "yes"))

	ctx := context.Background()
	must(t, s.Stat(ctx, env))
	rep := s.Fixup(ctx, false, env)

	if len(rep.Actions) != 2 {
		t.Fatalf("got %d actions, want 2: %+v", len(rep.Actions), rep.Actions)
	}
	running, _ := env.Services().Running(ctx, "nginx")
	enabled, _ := env.Services().Enabled(ctx, "nginx")
	if !running || !enabled {
		t.Fatalf("expected running+enabled, got running=%v enabled=%v", running, enabled)
	}
}

func TestServiceStopAndDisableScenario(t *testing.T) {
	env := provider.NewMemEnv()
	s0 := NewService("telnetd")
	must(t, s0.Set("running", "yes"))
	must(t, s0.Set("enabled", "yes"))
	ctx := context.Background()
	must(t, s0.Stat(ctx, env))
	s0.Fixup(ctx, false, env)

	s := NewService("telnetd")
	must(t, s.Set("running", "no"))
	must(t, s.Set("enabled", "no"))
	must(t, s.Stat(ctx, env))
	rep := s.Fixup(ctx, false, env)

	if len(rep.Actions) != 2 {
		t.Fatalf("got %d actions, want 2: %+v", len(rep.Actions), rep.Actions)
	}
	running, _ := env.Services().Running(ctx, "telnetd")
	enabled, _ := env.Services().Enabled(ctx, "telnetd")
	if running || enabled {
		t.Fatalf("expected stopped+disabled, got running=%v enabled=%v", running, enabled)
	}
}

func TestServiceNotifyTriggersReload(t *testing.T) {
	env := provider.NewMemEnv()
	s := NewService("nginx")
	must(t, s.Set("running", "yes"))
	ctx := context.Background()
	must(t, s.Stat(ctx, env))
	s.Fixup(ctx, false, env)

	must(t, s.Stat(ctx, env))
	if s.Different() != 0 {
		t.Fatalf("expected already compliant, got diff %v", s.Different())
	}

	s.Notify(NewFile("/etc/nginx/nginx.conf"))
	rep := s.Fixup(ctx, false, env)
	if len(rep.Actions) != 1 || rep.Actions[0].Summary != "reload service" {
		t.Fatalf("unexpected actions: %+v", rep.Actions)
	}
}

func TestServicePackUnpackRoundTrip(t *testing.T) {
	s := NewService("nginx")
	must(t, s.Set("running", "yes"))
	must(t, s.Set("enabled", "yes"))

	data := s.Pack()
	s2 := NewService("")
	if err := s2.Unpack(data); err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if s2.Key() != "nginx" || s2.Enforced() != s.Enforced() {
		t.Fatalf("round-trip mismatch: %+v", s2)
	}
}
