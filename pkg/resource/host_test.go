package resource

import (
	"context"
	"testing"

	"github.com/strandline/warden/pkg/provider"
)

func TestHostCreateScenario(t *testing.T) {
	env := provider.NewMemEnv()
	h := NewHost("web01")
	must(t, h.Set("ip", "10.0.0.5"))
	must(t, h.Set("alias", "web01.internal"))

	ctx := context.Background()
	must(t, h.Stat(ctx, env))
	rep := h.Fixup(ctx, false, env)

	if len(rep.Actions) != 2 {
		t.Fatalf("got %d actions, want 2 (create + aliases): %+v", len(rep.Actions), rep.Actions)
	}
	if rep.Actions[0].Summary != "create host entry" {
		t.Fatalf("unexpected first action: %+v", rep.Actions[0])
	}

	h2 := NewHost("web01")
	must(t, h2.Set("ip", "10.0.0.5"))
	must(t, h2.Stat(ctx, env))
	if h2.observedIP != "10.0.0.5" {
		t.Fatalf("expected ip persisted, got %q", h2.observedIP)
	}
}

func TestHostIPDrift(t *testing.T) {
	env := provider.NewMemEnv()
	seed := NewHost("web01")
	must(t, seed.Set("ip", "10.0.0.5"))
	ctx := context.Background()
	must(t, seed.Stat(ctx, env))
	seed.Fixup(ctx, false, env)

	h := NewHost("web01")
	must(t, h.Set("ip", "10.0.0.9"))
	must(t, h.Stat(ctx, env))
	if h.Different()&HostIP == 0 {
		t.Fatal("expected ip drift")
	}
	rep := h.Fixup(ctx, false, env)
	if len(rep.Actions) != 1 || rep.Actions[0].Summary != "change ip address to 10.0.0.9" {
		t.Fatalf("unexpected actions: %+v", rep.Actions)
	}
}

func TestHostAliasRewriteDropsStaleEntries(t *testing.T) {
	env := provider.NewMemEnv()
	seed := NewHost("web01")
	must(t, seed.Set("ip", "10.0.0.5"))
	must(t, seed.Set("alias", "a"))
	must(t, seed.Set("alias", "b"))
	must(t, seed.Set("alias", "c"))
	ctx := context.Background()
	must(t, seed.Stat(ctx, env))
	seed.Fixup(ctx, false, env)

	h := NewHost("web01")
	must(t, h.Set("ip", "10.0.0.5"))
	must(t, h.Set("alias", "only"))
	must(t, h.Stat(ctx, env))
	if h.Different()&HostAliases == 0 {
		t.Fatal("expected alias drift")
	}
	h.Fixup(ctx, false, env)

	h2 := NewHost("web01")
	must(t, h2.Set("ip", "10.0.0.5"))
	must(t, h2.Stat(ctx, env))
	if got := h2.observedAliases.Join(" "); got != "only" {
		t.Fatalf("expected stale aliases dropped, got %q", got)
	}
}

func TestHostAbsentScenario(t *testing.T) {
	env := provider.NewMemEnv()
	seed := NewHost("stale")
	must(t, seed.Set("ip", "10.0.0.1"))
	ctx := context.Background()
	must(t, seed.Stat(ctx, env))
	seed.Fixup(ctx, false, env)

	h := NewHost("stale")
	must(t, h.Set("present", "no"))
	must(t, h.Stat(ctx, env))
	rep := h.Fixup(ctx, false, env)

	if len(rep.Actions) != 1 || rep.Actions[0].Summary != "remove host entry" {
		t.Fatalf("unexpected actions: %+v", rep.Actions)
	}
}

func TestHostPackUnpackRoundTrip(t *testing.T) {
	h := NewHost("web01")
	must(t, h.Set("ip", "10.0.0.5"))
	must(t, h.Set("alias", "web01.internal"))
	must(t, h.Set("alias", "web"))

	data := h.Pack()
	h2 := NewHost("")
	if err := h2.Unpack(data); err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if h2.Key() != "web01" || h2.ip != "10.0.0.5" || h2.Enforced() != h.Enforced() {
		t.Fatalf("round-trip mismatch: %+v", h2)
	}
	if h2.aliases.Join(" ") != "web01.internal web" {
		t.Fatalf("unexpected aliases: %q", h2.aliases.Join(" "))
	}
}
