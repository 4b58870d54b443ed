package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/strandline/warden/pkg/resource"
)

func TestBoltSinkRecordHostReturnsHostname(t *testing.T) {
	sink, err := OpenBoltSink(t.TempDir())
	require.NoError(t, err)
	defer sink.Close()

	id, err := sink.RecordHost("agent01")
	require.NoError(t, err)
	require.Equal(t, "agent01", id)
}

func TestBoltSinkRecordAndListRuns(t *testing.T) {
	sink, err := OpenBoltSink(t.TempDir())
	require.NoError(t, err)
	defer sink.Close()

	hostID, err := sink.RecordHost("agent01")
	require.NoError(t, err)

	start := time.Unix(2000, 0)
	run := NewRun("run-1", "agent01", true, start)
	run.Append(resource.Report{
		Kind: resource.KindSysctl,
		Key:  "net.ipv4.ip_forward",
		Actions: []resource.Action{
			{Summary: "set net.ipv4.ip_forward to 1", Outcome: resource.Succeeded},
		},
	})
	run.Finish(start.Add(2 * time.Second))

	require.NoError(t, sink.RecordRun(hostID, run))

	runs, err := sink.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "run-1", runs[0].ID)
	require.True(t, runs[0].DryRun)
	require.Len(t, runs[0].Reports, 1)
	require.Equal(t, "agent01", runs[0].Host)
}

func TestBoltSinkRecordRunGeneratesIDWhenMissing(t *testing.T) {
	sink, err := OpenBoltSink(t.TempDir())
	require.NoError(t, err)
	defer sink.Close()

	_, err = sink.RecordHost("agent01")
	require.NoError(t, err)

	run := NewRun("", "agent01", false, time.Unix(3000, 0))
	run.Finish(time.Unix(3001, 0))
	require.NoError(t, sink.RecordRun("agent01", run))

	runs, err := sink.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotEmpty(t, runs[0].ID)
}
