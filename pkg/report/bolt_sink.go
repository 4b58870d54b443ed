package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/google/uuid"

	"github.com/strandline/warden/pkg/resource"
)

var (
	bucketHost = []byte("host")
	bucketJobs = []byte("jobs")
)

// boltJob is the JSON-encoded record stored per run in bucketJobs, keyed
// by run ID. Unlike the master SQLiteSink, an agent only ever reports
// against its own host, so the duration is stored directly instead of a
// host foreign key.
type boltJob struct {
	ID         string            `json:"id"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    time.Time         `json:"ended_at"`
	DurationNS int64             `json:"duration_ns"`
	DryRun     bool              `json:"dry_run"`
	Reports    []json.RawMessage `json:"reports"`
}

// BoltSink is the agent-local report store: one embedded database per
// host holding its own run history, used when no central SQLiteSink is
// reachable or configured.
type BoltSink struct {
	db *bolt.DB
}

// OpenBoltSink opens (creating if necessary) the agent's local report
// database under dataDir.
func OpenBoltSink(dataDir string) (*BoltSink, error) {
	dbPath := filepath.Join(dataDir, "warden-report.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("report: open bolt: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketHost, bucketJobs} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("report: create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltSink{db: db}, nil
}

// RecordHost stores the agent's own hostname once and returns it
// unchanged; bucketHost holds a single entry under the fixed key "self".
func (s *BoltSink) RecordHost(hostname string) (string, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHost)
		return b.Put([]byte("self"), []byte(hostname))
	})
	if err != nil {
		return "", fmt.Errorf("report: record host: %w", err)
	}
	return hostname, nil
}

// RecordRun persists one run keyed by its run ID, generating a fresh UUID
// when the run has none. hostID is accepted
// to satisfy Sink but unused: an agent-local database only ever holds
// its own host's runs.
func (s *BoltSink) RecordRun(hostID string, run *Run) error {
	reports := make([]json.RawMessage, 0, len(run.Reports))
	for _, rep := range run.Reports {
		data, err := json.Marshal(rep)
		if err != nil {
			return fmt.Errorf("report: marshal report %s: %w", rep.Key, err)
		}
		reports = append(reports, data)
	}

	job := boltJob{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		EndedAt:    run.EndedAt,
		DurationNS: run.EndedAt.Sub(run.StartedAt).Nanoseconds(),
		DryRun:     run.DryRun,
		Reports:    reports,
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJobs)
		data, err := json.Marshal(job)
		if err != nil {
			return err
		}
		return b.Put([]byte(job.ID), data)
	})
}

// ListRuns returns every stored run, most recently started first.
func (s *BoltSink) ListRuns() ([]*Run, error) {
	var jobs []boltJob
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJobs)
		return b.ForEach(func(k, v []byte) error {
			var job boltJob
			if err := json.Unmarshal(v, &job); err != nil {
				return err
			}
			jobs = append(jobs, job)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("report: list runs: %w", err)
	}

	host, err := s.hostname()
	if err != nil {
		return nil, err
	}

	runs := make([]*Run, 0, len(jobs))
	for _, job := range jobs {
		run := &Run{
			ID:        job.ID,
			Host:      host,
			DryRun:    job.DryRun,
			StartedAt: job.StartedAt,
			EndedAt:   job.EndedAt,
		}
		for _, raw := range job.Reports {
			var rep resource.Report
			if err := json.Unmarshal(raw, &rep); err != nil {
				return nil, fmt.Errorf("report: decode report: %w", err)
			}
			run.Reports = append(run.Reports, rep)
		}
		runs = append(runs, run)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

func (s *BoltSink) hostname() (string, error) {
	var host string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHost)
		host = string(b.Get([]byte("self")))
		return nil
	})
	return host, err
}

// Close releases the underlying database handle.
func (s *BoltSink) Close() error {
	return s.db.Close()
}

var _ Sink = (*BoltSink)(nil)
