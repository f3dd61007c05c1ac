// Package store provides SQLite-backed persistence for shavtzak: the
// worker roster, the append-only assignment log, and statistics
// snapshots.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/shavtzak/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store provides access to the shavtzak SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		payload TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		state TEXT NOT NULL,
		superseded INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		worker_id TEXT NOT NULL,
		task_type TEXT NOT NULL,
		kind TEXT NOT NULL,
		date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		slot_index INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_run_id ON assignments(run_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_date ON assignments(date);
	CREATE INDEX IF NOT EXISTS idx_runs_period ON runs(period_start, period_end);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Worker Operations ---

// SaveWorkers replaces the stored roster with the given workers,
// preserving their order. The roster is the current view; history lives
// in the assignment log and snapshots.
func (s *Store) SaveWorkers(workers []*models.Worker) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM workers`); err != nil {
		return fmt.Errorf("clear workers: %w", err)
	}
	now := time.Now().UTC()
	for i, w := range workers {
		payload, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("encode worker %s: %w", w.ID, err)
		}
		_, err = tx.Exec(
			`INSERT INTO workers (id, position, payload, updated_at) VALUES (?, ?, ?, ?)`,
			w.ID, i, string(payload), now,
		)
		if err != nil {
			return fmt.Errorf("insert worker %s: %w", w.ID, err)
		}
	}
	return tx.Commit()
}

// LoadWorkers returns the stored roster in saved order.
func (s *Store) LoadWorkers() ([]*models.Worker, error) {
	rows, err := s.db.Query(`SELECT payload FROM workers ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query workers: %w", err)
	}
	defer rows.Close()

	var workers []*models.Worker
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan worker: %w", err)
		}
		var w models.Worker
		if err := json.Unmarshal([]byte(payload), &w); err != nil {
			return nil, fmt.Errorf("decode worker: %w", err)
		}
		workers = append(workers, &w)
	}
	return workers, rows.Err()
}

// --- Run and Assignment Operations ---

// SaveRun persists a run and its assignments in one transaction. When
// supersede is set, prior runs overlapping the period are marked
// superseded first; their assignments stay in the log so history can
// always be reconstructed.
func (s *Store) SaveRun(result *models.RunResult, supersede bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	start := models.FormatDate(result.Period.Start)
	end := models.FormatDate(result.Period.End)

	if supersede {
		_, err = tx.Exec(
			`UPDATE runs SET superseded = 1 WHERE superseded = 0 AND period_start <= ? AND period_end >= ?`,
			end, start,
		)
		if err != nil {
			return fmt.Errorf("supersede runs: %w", err)
		}
	}

	now := time.Now().UTC()
	_, err = tx.Exec(
		`INSERT INTO runs (id, period_start, period_end, state, superseded, created_at) VALUES (?, ?, ?, ?, 0, ?)`,
		result.RunID, start, end, string(result.State), now,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, a := range result.Assignments() {
		endDate := a.EndDate
		if endDate.IsZero() {
			endDate = a.Date
		}
		_, err = tx.Exec(
			`INSERT INTO assignments (id, run_id, worker_id, task_type, kind, date, end_date, slot_index, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), result.RunID, a.WorkerID, a.TaskType, string(a.Kind),
			models.FormatDate(a.Date), models.FormatDate(endDate), a.SlotIndex, now,
		)
		if err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}
	return tx.Commit()
}

// ListAssignments returns the committed assignments of non-superseded
// runs whose span overlaps the period, in deterministic order. A
// multi-day block that starts before the period but runs into it is
// included.
func (s *Store) ListAssignments(period models.Period) ([]models.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT a.worker_id, a.task_type, a.kind, a.date, a.end_date, a.slot_index
		 FROM assignments a JOIN runs r ON a.run_id = r.id
		 WHERE r.superseded = 0 AND a.end_date >= ? AND a.date <= ?
		 ORDER BY a.date, a.task_type, a.slot_index, a.worker_id`,
		models.FormatDate(period.Start), models.FormatDate(period.End),
	)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var out []models.Assignment
	for rows.Next() {
		var a models.Assignment
		var kind, date, endDate string
		if err := rows.Scan(&a.WorkerID, &a.TaskType, &kind, &date, &endDate, &a.SlotIndex); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.Kind = models.TaskKind(kind)
		if a.Date, err = models.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse assignment date: %w", err)
		}
		if a.EndDate, err = models.ParseDate(endDate); err != nil {
			return nil, fmt.Errorf("parse assignment end date: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListAllAssignments returns every committed assignment of
// non-superseded runs across all periods.
func (s *Store) ListAllAssignments() ([]models.Assignment, error) {
	return s.ListAssignments(models.Period{
		Start: time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC),
	})
}

// SupersedePeriod marks all live runs overlapping the period as
// superseded without deleting anything. Returns the number of runs
// affected.
func (s *Store) SupersedePeriod(period models.Period) (int, error) {
	res, err := s.db.Exec(
		`UPDATE runs SET superseded = 1 WHERE superseded = 0 AND period_start <= ? AND period_end >= ?`,
		models.FormatDate(period.End), models.FormatDate(period.Start),
	)
	if err != nil {
		return 0, fmt.Errorf("supersede runs: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// --- Snapshot Operations ---

// SnapshotRecord is a persisted statistics snapshot with its identity.
type SnapshotRecord struct {
	ID        string
	CreatedAt time.Time
	Snapshot  *models.StatisticsSnapshot
}

// AppendSnapshot persists a statistics snapshot. Snapshots are
// append-only: updates never overwrite prior records, so the audit
// trail survives resets.
func (s *Store) AppendSnapshot(snap *models.StatisticsSnapshot) (string, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	id := uuid.New().String()
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	_, err = tx.Exec(
		`INSERT INTO snapshots (id, payload, created_at) VALUES (?, ?, ?)`,
		id, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('current_snapshot', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		id,
	)
	if err != nil {
		return "", fmt.Errorf("set current snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// CurrentSnapshot returns the snapshot the current-view pointer names,
// or nil after a reset.
func (s *Store) CurrentSnapshot() (*SnapshotRecord, error) {
	row := s.db.QueryRow(
		`SELECT sn.id, sn.payload, sn.created_at FROM snapshots sn
		 JOIN meta m ON m.key = 'current_snapshot' AND m.value = sn.id`,
	)
	var rec SnapshotRecord
	var payload string
	if err := row.Scan(&rec.ID, &payload, &rec.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	var snap models.StatisticsSnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	rec.Snapshot = &snap
	return &rec, nil
}

// ResetCurrentSnapshot clears the current-view pointer. Appended
// snapshots are untouched, so nothing about history is lost.
func (s *Store) ResetCurrentSnapshot() error {
	_, err := s.db.Exec(`DELETE FROM meta WHERE key = 'current_snapshot'`)
	if err != nil {
		return fmt.Errorf("reset current snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently appended snapshot, or nil
// when none exists.
func (s *Store) LatestSnapshot() (*SnapshotRecord, error) {
	row := s.db.QueryRow(`SELECT id, payload, created_at FROM snapshots ORDER BY created_at DESC, id DESC LIMIT 1`)
	var rec SnapshotRecord
	var payload string
	if err := row.Scan(&rec.ID, &payload, &rec.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	var snap models.StatisticsSnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	rec.Snapshot = &snap
	return &rec, nil
}

// CountSnapshots returns how many snapshots have been appended.
func (s *Store) CountSnapshots() (int, error) {
	row := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}
