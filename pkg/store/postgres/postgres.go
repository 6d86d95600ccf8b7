// Package postgres adapts pkg/store.Store to PostgreSQL via pgx/v5, giving
// the multi-process deployment (several tracegen instances sharing one
// store, or a CLI pointed at a long-running generator) a durable shared
// backend. Schema setup goes through golang-migrate/migrate so the schema
// lives as ordinary versioned SQL rather than ad hoc CREATE TABLE calls.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgx-contrib/pgxotel"

	"github.com/tracegen/tracegen/pkg/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store persists trace Records to a PostgreSQL database reachable via dsn.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, runs pending migrations, and returns a ready Store.
// Every query is traced through pgxotel.QueryTracer, so record inserts and
// lookups show up as child spans of whatever span called into the Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	poolCfg.ConnConfig.Tracer = &pgxotel.QueryTracer{
		Name: "github.com/tracegen/tracegen/pkg/store/postgres",
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if err := migrateUp(dsn); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

func migrateUp(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("postgres: migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("postgres: migration init: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("postgres: migrate up: %w", err)
	}
	return nil
}

var _ store.Store = (*Store)(nil)
var _ store.Inspectable = (*Store)(nil)

func (s *Store) Add(ctx context.Context, rec store.Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trace_records
			(trace_id, root_service, root_operation, scenario_name, status_ok, error_type, span_count, duration_ns, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.TraceID, rec.RootService, rec.RootOperation, rec.ScenarioName,
		rec.StatusOK, rec.ErrorType, rec.SpanCount, rec.Duration.Nanoseconds(), rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert record: %w", err)
	}
	return nil
}

func (s *Store) FetchRecent(ctx context.Context, limit int) ([]store.Record, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.pool.Query(ctx, `
		SELECT trace_id, root_service, root_operation, scenario_name, status_ok, error_type, span_count, duration_ns, timestamp
		FROM trace_records ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch recent: %w", err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		var rec store.Record
		var durationNS int64
		if err := rows.Scan(&rec.TraceID, &rec.RootService, &rec.RootOperation, &rec.ScenarioName,
			&rec.StatusOK, &rec.ErrorType, &rec.SpanCount, &durationNS, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan record: %w", err)
		}
		rec.Duration = time.Duration(durationNS)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) HealthCheck(ctx context.Context) bool {
	return s.pool.Ping(ctx) == nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) GetServiceNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT root_service FROM trace_records ORDER BY root_service`)
	if err != nil {
		return nil, fmt.Errorf("postgres: service names: %w", err)
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
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trace_records WHERE NOT status_ok`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count errors: %w", err)
	}
	return n, nil
}

func (s *Store) GetTraceCounts(ctx context.Context) (store.TraceCounts, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trace_records`).Scan(&total); err != nil {
		return store.TraceCounts{}, fmt.Errorf("postgres: count total: %w", err)
	}
	errs, err := s.CountErrorTraces(ctx)
	if err != nil {
		return store.TraceCounts{}, err
	}
	return store.TraceCounts{Total: total, Errors: errs, Success: total - errs}, nil
}
