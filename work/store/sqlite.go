package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteJournal is a SQLite implementation of Journal.
//
// It stores transition history in a single-file database. Designed for:
//   - Development and testing with zero setup
//   - Single-process graphs needing durable history
//   - Prototyping before migrating to a shared database
//
// SQLiteJournal enables WAL mode so readers (history queries, dashboards)
// don't block the appends coming from finishing nodes.
//
// Schema:
//   - work_transitions: one row per recorded lifecycle transition
type SQLiteJournal struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteJournal creates a SQLite-backed journal.
//
// The path parameter specifies the database file location:
//   - "./runs.db" - file in current directory
//   - "/var/lib/treework/runs.db" - absolute path
//   - ":memory:" - in-memory database (history lost on close)
//
// The journal automatically creates the database file and schema, enables
// WAL mode, and sets a busy timeout.
//
// Example:
//
//	journal, err := store.NewSQLiteJournal("./runs.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer journal.Close()
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	j := &SQLiteJournal{
		db:   db,
		path: path,
	}

	if err := j.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return j, nil
}

func (j *SQLiteJournal) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS work_transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run TEXT NOT NULL,
			seq INTEGER NOT NULL,
			node TEXT NOT NULL,
			msg TEXT NOT NULL,
			meta TEXT,
			at TIMESTAMP NOT NULL
		)
	`
	if _, err := j.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create work_transitions table: %w", err)
	}

	if _, err := j.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_transitions_run ON work_transitions(run)"); err != nil {
		return fmt.Errorf("failed to create idx_transitions_run: %w", err)
	}
	if _, err := j.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_transitions_run_node ON work_transitions(run, node)"); err != nil {
		return fmt.Errorf("failed to create idx_transitions_run_node: %w", err)
	}

	return nil
}

// Append records one transition.
func (j *SQLiteJournal) Append(ctx context.Context, t Transition) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return fmt.Errorf("journal is closed")
	}

	meta, err := marshalMeta(t.Meta)
	if err != nil {
		return err
	}

	_, err = j.db.ExecContext(ctx,
		"INSERT INTO work_transitions (run, seq, node, msg, meta, at) VALUES (?, ?, ?, ?, ?, ?)",
		t.Run, t.Seq, t.Node, t.Msg, meta, t.At,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transition: %w", err)
	}
	return nil
}

// History returns every transition recorded for a run, ordered by Seq.
func (j *SQLiteJournal) History(ctx context.Context, run string) ([]Transition, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return nil, fmt.Errorf("journal is closed")
	}

	rows, err := j.db.QueryContext(ctx,
		"SELECT run, seq, node, msg, meta, at FROM work_transitions WHERE run = ? ORDER BY seq",
		run,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	transitions, err := scanTransitions(rows)
	if err != nil {
		return nil, err
	}
	if len(transitions) == 0 {
		return nil, ErrNotFound
	}
	return transitions, nil
}

// Latest returns the highest-Seq transition for the node within the run.
func (j *SQLiteJournal) Latest(ctx context.Context, run, node string) (Transition, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return Transition{}, fmt.Errorf("journal is closed")
	}

	row := j.db.QueryRowContext(ctx,
		"SELECT run, seq, node, msg, meta, at FROM work_transitions WHERE run = ? AND node = ? ORDER BY seq DESC LIMIT 1",
		run, node,
	)

	t, err := scanTransition(row)
	if err == sql.ErrNoRows {
		return Transition{}, ErrNotFound
	}
	if err != nil {
		return Transition{}, fmt.Errorf("failed to query latest transition: %w", err)
	}
	return t, nil
}

// Runs lists the run labels with recorded history.
func (j *SQLiteJournal) Runs(ctx context.Context) ([]string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return nil, fmt.Errorf("journal is closed")
	}

	rows, err := j.db.QueryContext(ctx, "SELECT DISTINCT run FROM work_transitions ORDER BY run")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the underlying database. Appends after Close fail.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransition(row rowScanner) (Transition, error) {
	var t Transition
	var meta sql.NullString
	if err := row.Scan(&t.Run, &t.Seq, &t.Node, &t.Msg, &meta, &t.At); err != nil {
		return Transition{}, err
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &t.Meta); err != nil {
			return Transition{}, fmt.Errorf("failed to decode transition meta: %w", err)
		}
	}
	return t, nil
}

func scanTransitions(rows *sql.Rows) ([]Transition, error) {
	var transitions []Transition
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}

func marshalMeta(meta map[string]interface{}) (sql.NullString, error) {
	if meta == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode transition meta: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
