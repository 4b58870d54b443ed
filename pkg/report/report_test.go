package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/strandline/warden/pkg/resource"
)

func TestRunAnyFailed(t *testing.T) {
	run := NewRun("run-1", "web01", false, time.Unix(0, 0))
	run.Append(resource.Report{Kind: resource.KindUser, Key: "alice"})
	require.False(t, run.AnyFailed())

	run.Append(resource.Report{
		Kind: resource.KindPackage,
		Key:  "nginx",
		Actions: []resource.Action{
			{Summary: "install package", Outcome: resource.Failed},
		},
	})
	require.True(t, run.AnyFailed())
}

func TestRunActionCounts(t *testing.T) {
	run := NewRun("run-1", "web01", false, time.Unix(0, 0))
	run.Append(resource.Report{
		Kind: resource.KindService,
		Key:  "nginx",
		Actions: []resource.Action{
			{Summary: "start service", Outcome: resource.Succeeded},
			{Summary: "reload service", Outcome: resource.Skipped},
		},
	})

	counts := run.ActionCounts()
	require.Equal(t, 1, counts[resource.Succeeded])
	require.Equal(t, 1, counts[resource.Skipped])
	require.Equal(t, 0, counts[resource.Failed])
}
