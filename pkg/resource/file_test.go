package resource

import (
	"context"
	"io"
	"testing"

	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/value"
)

func TestFileContentDriftScenario(t *testing.T) {
	env := provider.NewMemEnv()
	env.SeedFile("/etc/motd", 0, 0, 0644, false)
	env.SeedFileContent("/etc/motd", []byte("stale"))
	env.SeedSource("/etc/motd", []byte("hello"))

	f := NewFile("/etc/motd")
	must(t, f.Set("mode", "644"))
	f.sha1 = value.SHA1Bytes([]byte("hello"))
	f.enforced |= FileSHA1

	ctx := context.Background()
	must(t, f.Stat(ctx, env))
	if !f.Different().Any(FileSHA1) {
		t.Fatal("expected sha1 diff")
	}
	if f.Different().Any(FileMode) {
		t.Fatal("did not expect mode diff")
	}

	rep := f.Fixup(ctx, false, env)
	if len(rep.Actions) != 1 || rep.Actions[0].Summary != "update content from master copy" {
		t.Fatalf("unexpected actions: %+v", rep.Actions)
	}
	if rep.Actions[0].Outcome != Succeeded {
		t.Fatalf("expected success, got %s", rep.Actions[0].Outcome)
	}

	content, err := env.Files().ReadContent(ctx, "/etc/motd")
	must(t, err)
	data, err := io.ReadAll(content)
	must(t, err)
	if string(data) != "hello" {
		t.Fatalf("expected local file to hold master copy, got %q", data)
	}
}

func TestFileNoDiffEmptyReport(t *testing.T) {
	env := provider.NewMemEnv()
	env.SeedFile("/etc/motd", 0, 0, 0644, false)
	env.SeedFileContent("/etc/motd", []byte("hello"))
	env.SeedSource("/etc/motd", []byte("hello"))

	f := NewFile("/etc/motd")
	must(t, f.Set("mode", "644"))
	f.sha1 = value.SHA1Bytes([]byte("hello"))
	f.enforced |= FileSHA1

	ctx := context.Background()
	must(t, f.Stat(ctx, env))
	if f.Different() != 0 {
		t.Fatalf("expected no diff, got %v", f.Different())
	}
	rep := f.Fixup(ctx, false, env)
	if len(rep.Actions) != 0 {
		t.Fatalf("expected zero actions, got %+v", rep.Actions)
	}
}

func TestAncestorDirs(t *testing.T) {
	got := ancestorDirs("/srv/www/index.html")
	want := []string{"/", "/srv", "/srv/www"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
