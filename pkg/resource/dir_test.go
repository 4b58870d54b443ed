package resource

import (
	"context"
	"testing"

	"github.com/strandline/warden/pkg/provider"
)

func TestDirCreateScenario(t *testing.T) {
	env := provider.NewMemEnv()
	d := NewDir("/srv/www")
	must(t, d.Set("mode", "0755"))

	ctx := context.Background()
	must(t, d.Stat(ctx, env))
	rep := d.Fixup(ctx, false, env)

	if len(rep.Actions) != 1 || rep.Actions[0].Summary != "create directory /srv/www" {
		t.Fatalf("unexpected actions: %+v", rep.Actions)
	}
	if rep.Actions[0].Outcome != Succeeded {
		t.Fatalf("got outcome %s, want SUCCEEDED", rep.Actions[0].Outcome)
	}

	meta, err := env.Files().Stat(ctx, "/srv/www")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !meta.Exists || !meta.IsDir || meta.Mode != 0755 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestDirModeDrift(t *testing.T) {
	env := provider.NewMemEnv()
	env.SeedFile("/srv/www", 0, 0, 0700, true)
	d := NewDir("/srv/www")
	must(t, d.Set("mode", "0755"))

	ctx := context.Background()
	must(t, d.Stat(ctx, env))
	if d.Different()&DirMode == 0 {
		t.Fatal("expected mode drift")
	}

	rep := d.Fixup(ctx, false, env)
	if len(rep.Actions) != 1 || rep.Actions[0].Summary != "change mode to 0755" {
		t.Fatalf("unexpected actions: %+v", rep.Actions)
	}
}

func TestDirAbsentScenario(t *testing.T) {
	env := provider.NewMemEnv()
	env.SeedFile("/tmp/stale", 0, 0, 0755, true)
	d := NewDir("/tmp/stale")
	must(t, d.Set("present", "no"))

	ctx := context.Background()
	must(t, d.Stat(ctx, env))
	rep := d.Fixup(ctx, false, env)

	if len(rep.Actions) != 1 || rep.Actions[0].Summary != "remove directory" {
		t.Fatalf("unexpected actions: %+v", rep.Actions)
	}
	meta, _ := env.Files().Stat(ctx, "/tmp/stale")
	if meta.Exists {
		t.Fatal("expected directory removed")
	}
}

func TestDirPackUnpackRoundTrip(t *testing.T) {
	d := NewDir("/srv/www")
	must(t, d.Set("owner", "web"))
	must(t, d.Set("group", "web"))
	must(t, d.Set("mode", "0750"))

	data := d.Pack()
	d2 := NewDir("")
	if err := d2.Unpack(data); err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if d2.Key() != "/srv/www" || d2.ownerName != "web" || d2.groupName != "web" || d2.mode != 0750 {
		t.Fatalf("round-trip mismatch: %+v", d2)
	}
	if d2.Enforced() != d.Enforced() {
		t.Fatalf("enforced mismatch: got %v want %v", d2.Enforced(), d.Enforced())
	}
}
