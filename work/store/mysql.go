package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLJournal is a MySQL/MariaDB implementation of Journal.
//
// It stores transition history in a relational database. Designed for:
//   - Production graphs requiring a durable audit trail
//   - History shared across processes and hosts
//   - Compliance requirements
//
// MySQLJournal uses connection pooling and creates its schema on first use.
//
// Schema:
//   - work_transitions: one row per recorded lifecycle transition
type MySQLJournal struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLJournal creates a MySQL-backed journal.
//
// The DSN (Data Source Name) format is:
//
//	[username[:password]@][protocol[(address)]]/dbname[?param1=value1&...]
//
// The DSN must include parseTime=true so recorded timestamps scan back
// into time.Time:
//
//	user:password@tcp(localhost:3306)/treework?parseTime=true
//
// Never hardcode credentials in source; read the DSN from the environment:
//
//	dsn := os.Getenv("MYSQL_DSN")
//	if dsn == "" {
//	    log.Fatal("MYSQL_DSN environment variable not set")
//	}
//	journal, err := store.NewMySQLJournal(dsn)
func NewMySQLJournal(dsn string) (*MySQLJournal, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	j := &MySQLJournal{db: db}

	if err := j.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return j, nil
}

func (j *MySQLJournal) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS work_transitions (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run VARCHAR(255) NOT NULL,
			seq BIGINT NOT NULL,
			node VARCHAR(255) NOT NULL,
			msg VARCHAR(64) NOT NULL,
			meta TEXT,
			at DATETIME(6) NOT NULL,
			INDEX idx_transitions_run (run),
			INDEX idx_transitions_run_node (run, node)
		)
	`
	if _, err := j.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create work_transitions table: %w", err)
	}
	return nil
}

// Append records one transition.
func (j *MySQLJournal) Append(ctx context.Context, t Transition) error {
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
func (j *MySQLJournal) History(ctx context.Context, run string) ([]Transition, error) {
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
func (j *MySQLJournal) Latest(ctx context.Context, run, node string) (Transition, error) {
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
func (j *MySQLJournal) Runs(ctx context.Context) ([]string, error) {
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

// Close closes the underlying connection pool. Appends after Close fail.
func (j *MySQLJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}
