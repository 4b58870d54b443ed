package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strandline/warden/pkg/policy"
	"github.com/strandline/warden/pkg/provider"
	"github.com/strandline/warden/pkg/resource"
)

func TestDriverRunCreatesUserThenDirThenFile(t *testing.T) {
	env := provider.NewMemEnv()
	env.SeedFact("hostname", "web01")

	pol := policy.New()
	user := resource.NewUser("web")
	dir := resource.NewDir("/srv/www")
	require.NoError(t, dir.Set("owner", "web"))
	require.NoError(t, dir.Set("mode", "0755"))
	file := resource.NewFile("/srv/www/index.html")
	require.NoError(t, file.Set("owner", "web"))
	env.SeedSource("/srv/www/index.html", []byte("hello"))
	require.NoError(t, file.Set("source", "/srv/www/index.html"))

	require.NoError(t, pol.Add(user))
	require.NoError(t, pol.Add(dir))
	require.NoError(t, pol.Add(file))

	order, err := pol.Normalize(nil)
	require.NoError(t, err)

	driver := NewDriver()
	run, err := driver.Run(context.Background(), order, pol, env, false)
	require.NoError(t, err)
	require.Equal(t, "web01", run.Host)
	require.Len(t, run.Reports, 3)

	require.Equal(t, resource.KindUser, run.Reports[0].Kind)
	require.Equal(t, resource.KindDir, run.Reports[1].Kind)
	require.Equal(t, resource.KindFile, run.Reports[2].Kind)

	require.True(t, run.Reports[0].AnySucceeded())
	require.True(t, run.Reports[1].AnySucceeded())
}

func TestDriverRunNotifiesServiceOnSuccessfulFixup(t *testing.T) {
	env := provider.NewMemEnv()
	env.SeedFile("/etc/nginx/nginx.conf", 0, 0, 0644, false)
	env.SeedSource("/etc/nginx/nginx.conf", []byte("server {}"))

	pol := policy.New()
	file := resource.NewFile("/etc/nginx/nginx.conf")
	require.NoError(t, file.Set("source", "/etc/nginx/nginx.conf"))

	// nginx already runs, so the only service action possible is the
	// reload that the driver's notification triggers.
	require.NoError(t, env.Services().Start(context.Background(), "nginx"))
	svc := resource.NewService("nginx")
	require.NoError(t, svc.Set("running", "yes"))

	require.NoError(t, pol.Add(file))
	require.NoError(t, pol.Add(svc))
	pol.AddDependency(svc.ID(), file.ID())

	order, err := pol.Normalize(nil)
	require.NoError(t, err)

	driver := NewDriver()
	run, err := driver.Run(context.Background(), order, pol, env, false)
	require.NoError(t, err)
	require.False(t, run.AnyFailed())
	require.Len(t, run.Reports, 2)
	require.Equal(t, resource.KindService, run.Reports[1].Kind)
	require.Equal(t, []resource.Action{{Summary: "reload service", Outcome: resource.Succeeded}}, run.Reports[1].Actions)
}

func TestDriverRunDryRunSkipsMutation(t *testing.T) {
	env := provider.NewMemEnv()

	pol := policy.New()
	pkg := resource.NewPackage("curl")
	require.NoError(t, pol.Add(pkg))

	order, err := pol.Normalize(nil)
	require.NoError(t, err)

	driver := NewDriver()
	run, err := driver.Run(context.Background(), order, pol, env, true)
	require.NoError(t, err)
	require.Len(t, run.Reports, 1)

	version, installed, err := env.Packages().Version(context.Background(), "curl")
	require.NoError(t, err)
	require.False(t, installed)
	require.Empty(t, version)
}
