// Package sqlite adapts pkg/store.Store to an embedded SQLite database via
// modernc.org/sqlite, a pure-Go driver that needs no cgo toolchain. This is
// the single-process durable alternative to the default in-memory Store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tracegen/tracegen/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS trace_records (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	trace_id       TEXT NOT NULL,
	root_service   TEXT NOT NULL,
	root_operation TEXT NOT NULL,
	scenario_name  TEXT NOT NULL,
	status_ok      INTEGER NOT NULL,
	error_type     TEXT NOT NULL DEFAULT '',
	span_count     INTEGER NOT NULL,
	duration_ns    INTEGER NOT NULL,
	timestamp      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trace_records_timestamp ON trace_records(timestamp);
`

// Store persists trace Records to an on-disk (or in-process ":memory:")
// SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates (if absent) the schema at path and returns a ready Store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite does not support concurrent writers

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

var _ store.Store = (*Store)(nil)
var _ store.Inspectable = (*Store)(nil)

func (s *Store) Add(ctx context.Context, rec store.Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trace_records
			(trace_id, root_service, root_operation, scenario_name, status_ok, error_type, span_count, duration_ns, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TraceID, rec.RootService, rec.RootOperation, rec.ScenarioName,
		boolToInt(rec.StatusOK), rec.ErrorType, rec.SpanCount, rec.Duration.Nanoseconds(),
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert record: %w", err)
	}
	return nil
}

func (s *Store) FetchRecent(ctx context.Context, limit int) ([]store.Record, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT trace_id, root_service, root_operation, scenario_name, status_ok, error_type, span_count, duration_ns, timestamp
		FROM trace_records ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetch recent: %w", err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		var rec store.Record
		var statusOK int
		var durationNS int64
		var ts string
		if err := rows.Scan(&rec.TraceID, &rec.RootService, &rec.RootOperation, &rec.ScenarioName,
			&statusOK, &rec.ErrorType, &rec.SpanCount, &durationNS, &ts); err != nil {
			return nil, fmt.Errorf("sqlite: scan record: %w", err)
		}
		rec.StatusOK = statusOK != 0
		rec.Duration = time.Duration(durationNS)
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) HealthCheck(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetServiceNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT root_service FROM trace_records ORDER BY root_service`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: service names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (s *Store) CountErrorTraces(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trace_records WHERE status_ok = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count errors: %w", err)
	}
	return n, nil
}

func (s *Store) GetTraceCounts(ctx context.Context) (store.TraceCounts, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trace_records`).Scan(&total); err != nil {
		return store.TraceCounts{}, fmt.Errorf("sqlite: count total: %w", err)
	}
	errs, err := s.CountErrorTraces(ctx)
	if err != nil {
		return store.TraceCounts{}, err
	}
	return store.TraceCounts{Total: total, Errors: errs, Success: total - errs}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
