// Package postgres stores targets and their history in PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amartya2002/uptime-monitor/uptime"
)

// PostgresStore implements uptime.Store for PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// New creates a new PostgresStore and establishes a connection to the database.
// It also runs migrations to ensure the schema is up to date.
func New(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	store := &PostgresStore{db: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS targets (
		position             INTEGER NOT NULL,
		id                   TEXT PRIMARY KEY,
		url                  TEXT NOT NULL,
		name                 TEXT NOT NULL DEFAULT '',
		interval_seconds     INTEGER NOT NULL,
		auto_monitor         BOOLEAN NOT NULL,
		notify_enabled       BOOLEAN NOT NULL,
		notify_address       TEXT NOT NULL DEFAULT '',
		status               TEXT NOT NULL,
		last_checked         TIMESTAMPTZ,
		last_notified_status TEXT NOT NULL,
		uptime               DOUBLE PRECISION NOT NULL,
		created_at           TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_targets_position ON targets (position);

	CREATE TABLE IF NOT EXISTS history (
		target_id   TEXT NOT NULL REFERENCES targets(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		checked_at  TIMESTAMPTZ NOT NULL,
		status      TEXT NOT NULL,
		elapsed_ms  BIGINT NOT NULL,
		status_code INTEGER NOT NULL,
		error       TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (target_id, seq)
	);
	`
	_, err := s.db.Exec(ctx, schema)
	return err
}

// Load returns every target in saved order with its history oldest first.
func (s *PostgresStore) Load(ctx context.Context) ([]uptime.Target, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, url, name, interval_seconds, auto_monitor, notify_enabled, notify_address,
		       status, last_checked, last_notified_status, uptime, created_at
		FROM targets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query targets: %w", err)
	}
	defer rows.Close()

	targets := []uptime.Target{}
	index := map[string]int{}
	for rows.Next() {
		var (
			t                      uptime.Target
			status, notified       string
			lastChecked, createdAt *time.Time
		)
		if err := rows.Scan(&t.ID, &t.URL, &t.Name, &t.Interval, &t.AutoMonitor, &t.Notifications.Enabled,
			&t.Notifications.Address, &status, &lastChecked, &notified, &t.Uptime, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan target row: %w", err)
		}
		t.Status = uptime.Status(status)
		t.LastNotifiedStatus = uptime.Status(notified)
		if lastChecked != nil {
			t.LastChecked = *lastChecked
		}
		if createdAt != nil {
			t.CreatedAt = *createdAt
		}
		t.History = []uptime.HistoryEntry{}
		index[t.ID] = len(targets)
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hrows, err := s.db.Query(ctx, `
		SELECT target_id, checked_at, status, elapsed_ms, status_code, error
		FROM history ORDER BY target_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer hrows.Close()
	for hrows.Next() {
		var (
			id, status string
			e          uptime.HistoryEntry
		)
		if err := hrows.Scan(&id, &e.Time, &status, &e.ElapsedMS, &e.StatusCode, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if i, ok := index[id]; ok {
			e.Status = uptime.Status(status)
			targets[i].History = append(targets[i].History, e)
		}
	}
	return targets, hrows.Err()
}

// Save replaces the stored set in one transaction. History rows are bulk
// loaded with COPY.
func (s *PostgresStore) Save(ctx context.Context, targets []uptime.Target) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM targets`); err != nil {
		return fmt.Errorf("failed to clear targets: %w", err)
	}

	batch := &pgx.Batch{}
	var history [][]any
	for pos, t := range targets {
		batch.Queue(`
			INSERT INTO targets (position, id, url, name, interval_seconds, auto_monitor, notify_enabled, notify_address,
			                     status, last_checked, last_notified_status, uptime, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			pos, t.ID, t.URL, t.Name, t.Interval, t.AutoMonitor, t.Notifications.Enabled, t.Notifications.Address,
			string(t.Status), nullTime(t.LastChecked), string(t.LastNotifiedStatus), t.Uptime, nullTime(t.CreatedAt))
		for seq, e := range t.History {
			history = append(history, []any{t.ID, seq, e.Time, string(e.Status), e.ElapsedMS, e.StatusCode, e.Error})
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert targets: %w", err)
	}

	if len(history) > 0 {
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"history"},
			[]string{"target_id", "seq", "checked_at", "status", "elapsed_ms", "status_code", "error"},
			pgx.CopyFromRows(history))
		if err != nil {
			return fmt.Errorf("failed to copy history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
