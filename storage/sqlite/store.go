// Package sqlite stores targets and their history in a SQLite database
// using the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/amartya2002/uptime-monitor/uptime"
)

// SQLiteStore implements uptime.Store. Every Save replaces the whole set in
// one transaction.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// New opens (or creates) the database at path and runs migrations. A file
// that fails the integrity check is renamed to <path>.corrupt-<unix> and a
// fresh database is created in its place.
func New(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("unable to create database directory: %w", err)
	}

	db, err := open(ctx, path)
	if err == nil {
		err = integrityCheck(ctx, db)
		if err != nil {
			db.Close()
		}
	}
	if err != nil {
		aside, qerr := quarantine(path)
		if qerr != nil {
			return nil, fmt.Errorf("unable to quarantine corrupt database: %w", qerr)
		}
		logger.Warn("Corrupt database set aside, starting empty",
			zap.String("path", path), zap.String("moved_to", aside), zap.Error(err))
		if db, err = open(ctx, path); err != nil {
			return nil, err
		}
	}

	store := &SQLiteStore{db: db, path: path, logger: logger}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return db, nil
}

func integrityCheck(ctx context.Context, db *sql.DB) error {
	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}

func quarantine(path string) (string, error) {
	aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if err := os.Rename(path, aside); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		_ = os.Remove(path + suffix)
	}
	return aside, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// migrate ensures the database schema is created.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS targets (
	position             INTEGER NOT NULL,
	id                   TEXT PRIMARY KEY,
	url                  TEXT NOT NULL,
	name                 TEXT NOT NULL DEFAULT '',
	interval_seconds     INTEGER NOT NULL,
	auto_monitor         INTEGER NOT NULL,
	notify_enabled       INTEGER NOT NULL,
	notify_address       TEXT NOT NULL DEFAULT '',
	status               TEXT NOT NULL,
	last_checked         TEXT NOT NULL DEFAULT '',
	last_notified_status TEXT NOT NULL,
	uptime               REAL NOT NULL,
	created_at           TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_targets_position ON targets (position);

CREATE TABLE IF NOT EXISTS history (
	target_id   TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	checked_at  TEXT NOT NULL,
	status      TEXT NOT NULL,
	elapsed_ms  INTEGER NOT NULL,
	status_code INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (target_id, seq),
	FOREIGN KEY(target_id) REFERENCES targets(id) ON DELETE CASCADE
);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Load returns every target in saved order with its history oldest first.
func (s *SQLiteStore) Load(ctx context.Context) ([]uptime.Target, error) {
	query := `
SELECT id, url, name, interval_seconds, auto_monitor, notify_enabled, notify_address,
       status, last_checked, last_notified_status, uptime, created_at
FROM targets ORDER BY position`
	rows, err := s.db.QueryContext(ctx, query)
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
			lastChecked, createdAt string
		)
		if err := rows.Scan(&t.ID, &t.URL, &t.Name, &t.Interval, &t.AutoMonitor, &t.Notifications.Enabled,
			&t.Notifications.Address, &status, &lastChecked, &notified, &t.Uptime, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan target row: %w", err)
		}
		t.Status = uptime.Status(status)
		t.LastNotifiedStatus = uptime.Status(notified)
		if t.LastChecked, err = parseTime(lastChecked); err != nil {
			return nil, fmt.Errorf("failed to parse last_checked of target %s: %w", t.ID, err)
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at of target %s: %w", t.ID, err)
		}
		t.History = []uptime.HistoryEntry{}
		index[t.ID] = len(targets)
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hrows, err := s.db.QueryContext(ctx, `
SELECT target_id, checked_at, status, elapsed_ms, status_code, error
FROM history ORDER BY target_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer hrows.Close()
	for hrows.Next() {
		var (
			id, checkedAt, status string
			e                     uptime.HistoryEntry
		)
		if err := hrows.Scan(&id, &checkedAt, &status, &e.ElapsedMS, &e.StatusCode, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		if e.Time, err = parseTime(checkedAt); err != nil {
			return nil, fmt.Errorf("failed to parse checked_at of target %s: %w", id, err)
		}
		e.Status = uptime.Status(status)
		targets[i].History = append(targets[i].History, e)
	}
	return targets, hrows.Err()
}

// Save replaces the stored set with targets.
func (s *SQLiteStore) Save(ctx context.Context, targets []uptime.Target) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM targets`); err != nil {
		return fmt.Errorf("failed to clear targets: %w", err)
	}

	insertTarget, err := tx.PrepareContext(ctx, `
INSERT INTO targets (position, id, url, name, interval_seconds, auto_monitor, notify_enabled, notify_address,
                     status, last_checked, last_notified_status, uptime, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare target insert: %w", err)
	}
	defer insertTarget.Close()
	insertEntry, err := tx.PrepareContext(ctx, `
INSERT INTO history (target_id, seq, checked_at, status, elapsed_ms, status_code, error)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer insertEntry.Close()

	for pos, t := range targets {
		if _, err := insertTarget.ExecContext(ctx, pos, t.ID, t.URL, t.Name, t.Interval, t.AutoMonitor,
			t.Notifications.Enabled, t.Notifications.Address, string(t.Status), formatTime(t.LastChecked),
			string(t.LastNotifiedStatus), t.Uptime, formatTime(t.CreatedAt)); err != nil {
			return fmt.Errorf("failed to insert target %s: %w", t.ID, err)
		}
		for seq, e := range t.History {
			if _, err := insertEntry.ExecContext(ctx, t.ID, seq, formatTime(e.Time), string(e.Status),
				e.ElapsedMS, e.StatusCode, e.Error); err != nil {
				return fmt.Errorf("failed to insert history for %s: %w", t.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
