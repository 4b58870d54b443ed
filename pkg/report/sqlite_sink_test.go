package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/strandline/warden/pkg/resource"
)

func TestSQLiteSinkRecordHostIsIdempotent(t *testing.T) {
	sink, err := OpenSQLiteSink(filepath.Join(t.TempDir(), "master.db"))
	require.NoError(t, err)
	defer sink.Close()

	id1, err := sink.RecordHost("web01")
	require.NoError(t, err)
	id2, err := sink.RecordHost("web01")
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	id3, err := sink.RecordHost("web02")
	require.NoError(t, err)
	require.NotEqual(t, id1, id3)
}

func TestSQLiteSinkRecordRun(t *testing.T) {
	sink, err := OpenSQLiteSink(filepath.Join(t.TempDir(), "master.db"))
	require.NoError(t, err)
	defer sink.Close()

	hostID, err := sink.RecordHost("web01")
	require.NoError(t, err)

	start := time.Unix(1000, 0)
	run := NewRun("", "web01", false, start)
	run.Append(resource.Report{
		Kind: resource.KindUser,
		Key:  "alice",
		Actions: []resource.Action{
			{Summary: "set shell to /bin/zsh", Outcome: resource.Succeeded},
		},
	})
	run.Append(resource.Report{Kind: resource.KindDir, Key: "/srv/www"})
	run.Finish(start.Add(5 * time.Second))

	require.NoError(t, sink.RecordRun(hostID, run))

	var jobCount int
	require.NoError(t, sink.db.QueryRow(`SELECT count(*) FROM jobs;`).Scan(&jobCount))
	require.Equal(t, 1, jobCount)

	var resourceCount int
	require.NoError(t, sink.db.QueryRow(`SELECT count(*) FROM resources;`).Scan(&resourceCount))
	require.Equal(t, 2, resourceCount)

	var actionCount int
	require.NoError(t, sink.db.QueryRow(`SELECT count(*) FROM actions;`).Scan(&actionCount))
	require.Equal(t, 1, actionCount)
}
