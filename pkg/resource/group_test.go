package resource

import (
	"context"
	"testing"

	"github.com/strandline/warden/pkg/provider"
)

func TestGroupMembershipEditScenario(t *testing.T) {
	env := provider.NewMemEnv()
	env.SeedGroup(provider.GroupEntry{Name: "admins", Members: []string{"a", "b", "c"}})

	g := NewGroup("admins")
	must(t, g.Set("member", "x"))
	must(t, g.Set("member", "!b"))

	ctx := context.Background()
	must(t, g.Stat(ctx, env))
	rep := g.Fixup(ctx, false, env)

	var summaries []string
	for _, a := range rep.Actions {
		summaries = append(summaries, a.Summary)
	}
	want := []string{"add x", "remove b"}
	if len(summaries) != len(want) {
		t.Fatalf("got %v want %v", summaries, want)
	}
	for i := range want {
		if summaries[i] != want[i] {
			t.Fatalf("got %v want %v", summaries, want)
		}
	}

	entry, _, _ := env.Groups().Lookup(ctx, "admins")
	got := map[string]bool{}
	for _, m := range entry.Members {
		got[m] = true
	}
	if !got["a"] || !got["c"] || !got["x"] || got["b"] {
		t.Fatalf("unexpected final membership: %v", entry.Members)
	}
}

func TestGroupDisjointPendingSets(t *testing.T) {
	g := NewGroup("g")
	must(t, g.Set("member", "x"))
	if !g.memAdd.Has("x") || g.memRm.Has("x") {
		t.Fatal("expected x in memAdd only")
	}
	must(t, g.Set("member", "!x"))
	if g.memAdd.Has("x") || !g.memRm.Has("x") {
		t.Fatal("expected x moved to memRm")
	}
}
