package report

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const masterSchema = `
CREATE TABLE IF NOT EXISTS hosts (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS jobs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	host_id    INTEGER NOT NULL REFERENCES hosts(id),
	started_at INTEGER,
	ended_at   INTEGER,
	dry_run    INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS resources (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id    INTEGER NOT NULL REFERENCES jobs(id),
	type      TEXT NOT NULL,
	name      TEXT NOT NULL,
	sequence  INTEGER NOT NULL,
	compliant INTEGER NOT NULL,
	fixed     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS actions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	resource_id INTEGER NOT NULL REFERENCES resources(id),
	summary     TEXT NOT NULL,
	sequence    INTEGER NOT NULL,
	result      TEXT NOT NULL
);
`

// SQLiteSink is the central, multi-host report store: a master database
// keyed by host, with one jobs row per reconciliation run. It is the
// counterpart of the agent-local BoltSink.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLiteSink opens (and, if necessary, initializes) the master report
// database at path.
func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("report: open sqlite: %w", err)
	}
	if _, err := db.Exec(masterSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("report: init schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// RecordHost looks up the row for hostname, inserting one if it doesn't
// exist yet, and returns its id as a string.
func (s *SQLiteSink) RecordHost(hostname string) (string, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM hosts WHERE name = ?;`, hostname).Scan(&id)
	if err == nil {
		return fmt.Sprintf("%d", id), nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("report: lookup host %s: %w", hostname, err)
	}

	res, err := s.db.Exec(`INSERT INTO hosts (name) VALUES (?);`, hostname)
	if err != nil {
		return "", fmt.Errorf("report: insert host %s: %w", hostname, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("report: host id: %w", err)
	}
	return fmt.Sprintf("%d", id), nil
}

// RecordRun stores one reconciliation run and every resource/action under
// it, all within a single transaction.
func (s *SQLiteSink) RecordRun(hostID string, run *Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("report: begin tx: %w", err)
	}
	defer tx.Rollback()

	dryRun := 0
	if run.DryRun {
		dryRun = 1
	}
	jobRes, err := tx.Exec(
		`INSERT INTO jobs (host_id, started_at, ended_at, dry_run) VALUES (?,?,?,?);`,
		hostID, run.StartedAt.Unix(), run.EndedAt.Unix(), dryRun,
	)
	if err != nil {
		return fmt.Errorf("report: insert job: %w", err)
	}
	jobID, err := jobRes.LastInsertId()
	if err != nil {
		return fmt.Errorf("report: job id: %w", err)
	}

	resStmt, err := tx.Prepare(
		`INSERT INTO resources (job_id, type, name, sequence, compliant, fixed) VALUES (?,?,?,?,?,?);`,
	)
	if err != nil {
		return fmt.Errorf("report: prepare resources: %w", err)
	}
	defer resStmt.Close()

	actStmt, err := tx.Prepare(
		`INSERT INTO actions (resource_id, summary, sequence, result) VALUES (?,?,?,?);`,
	)
	if err != nil {
		return fmt.Errorf("report: prepare actions: %w", err)
	}
	defer actStmt.Close()

	for seq, rep := range run.Reports {
		compliant := 1
		if len(rep.Actions) > 0 {
			compliant = 0
		}
		fixed := 0
		if rep.AnySucceeded() {
			fixed = 1
		}
		resResult, err := resStmt.Exec(jobID, string(rep.Kind), rep.Key, seq, compliant, fixed)
		if err != nil {
			return fmt.Errorf("report: insert resource %s: %w", rep.Key, err)
		}
		resID, err := resResult.LastInsertId()
		if err != nil {
			return fmt.Errorf("report: resource id: %w", err)
		}
		for aSeq, a := range rep.Actions {
			if _, err := actStmt.Exec(resID, a.Summary, aSeq, string(a.Outcome)); err != nil {
				return fmt.Errorf("report: insert action %q: %w", a.Summary, err)
			}
		}
	}

	return tx.Commit()
}

// Close releases the underlying database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

var _ Sink = (*SQLiteSink)(nil)
