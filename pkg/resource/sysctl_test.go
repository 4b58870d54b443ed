package resource

import (
	"context"
	"testing"

	"github.com/strandline/warden/pkg/provider"
)

func TestSysctlSetsLiveAndPersisted(t *testing.T) {
	env := provider.NewMemEnv()
	s := NewSysctl("net.ipv4.ip_forward")
	must(t, s.Set("value", "1"))

	ctx := context.Background()
	must(t, s.Stat(ctx, env))
	rep := s.Fixup(ctx, false, env)

	if len(rep.Actions) != 2 {
		t.Fatalf("got %d actions, want 2 (live + persist): %+v", len(rep.Actions), rep.Actions)
	}

	live, _ := env.Sysctl().ReadLive(ctx, "net.ipv4.ip_forward")
	persisted, exists, _ := env.Sysctl().ReadPersisted(ctx, "net.ipv4.ip_forward")
	if live != "1" || !exists || persisted != "1" {
		t.Fatalf("unexpected sysctl state: live=%q persisted=%q exists=%v", live, persisted, exists)
	}
}

func TestSysctlAlreadyCompliant(t *testing.T) {
	env := provider.NewMemEnv()
	env.SeedSysctl("vm.swappiness", "10")
	s := NewSysctl("vm.swappiness")
	must(t, s.Set("value", "10"))
	must(t, s.Set("persist", "no"))

	ctx := context.Background()
	must(t, s.Stat(ctx, env))
	if s.Different() != 0 {
		t.Fatalf("expected no drift, got %v", s.Different())
	}
	rep := s.Fixup(ctx, false, env)
	if len(rep.Actions) != 0 {
		t.Fatalf("expected no actions, got %+v", rep.Actions)
	}
}

func TestSysctlLiveOnlyDrift(t *testing.T) {
	env := provider.NewMemEnv()
	env.SeedSysctl("vm.swappiness", "60")
	s := NewSysctl("vm.swappiness")
	must(t, s.Set("value", "10"))
	must(t, s.Set("persist", "no"))

	ctx := context.Background()
	must(t, s.Stat(ctx, env))
	if s.Different()&SysctlValue == 0 {
		t.Fatal("expected live drift")
	}
	if s.Different()&SysctlPersist != 0 {
		t.Fatal("did not expect persist drift since persist is disabled")
	}
	rep := s.Fixup(ctx, false, env)
	if len(rep.Actions) != 1 || rep.Actions[0].Summary != "set vm.swappiness to 10" {
		t.Fatalf("unexpected actions: %+v", rep.Actions)
	}
}

func TestSysctlPackUnpackRoundTrip(t *testing.T) {
	s := NewSysctl("net.ipv4.ip_forward")
	must(t, s.Set("value", "1"))

	data := s.Pack()
	s2 := NewSysctl("")
	if err := s2.Unpack(data); err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if s2.Key() != "net.ipv4.ip_forward" || s2.value != "1" || s2.Enforced() != s.Enforced() {
		t.Fatalf("round-trip mismatch: %+v", s2)
	}
}
