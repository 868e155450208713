// Package jsonfile keeps the target set in a single JSON document on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/amartya2002/uptime-monitor/uptime"
)

// Store implements uptime.Store on top of one JSON file holding a flat list
// of targets. Writes go to a temp file in the same directory which is synced
// and renamed over the original, so a crash never leaves a torn file.
type Store struct {
	path   string
	logger *zap.Logger
	now    func() time.Time
	mu     sync.Mutex
}

func New(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonfile: empty path")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create directory: %w", err)
	}
	return &Store{path: path, logger: logger, now: time.Now}, nil
}

func (s *Store) Path() string { return s.path }

// Load returns the stored targets. A missing file is an empty set. A file in
// the first dashboard's layout (numeric ids, responseHistory, lastChecked) is
// converted and rewritten in the current layout on the next Save. Any other
// file that cannot be decoded is renamed to <path>.corrupt-<unix> and an
// empty set is returned.
func (s *Store) Load(ctx context.Context) ([]uptime.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []uptime.Target{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return []uptime.Target{}, nil
	}

	var targets []uptime.Target
	if err := json.Unmarshal(data, &targets); err != nil {
		if legacy, lerr := decodeLegacy(data); lerr == nil {
			s.logger.Info("Read store file in the legacy dashboard layout",
				zap.String("path", s.path), zap.Int("sites", len(legacy)))
			return legacy, nil
		}
		aside, qerr := s.quarantine()
		if qerr != nil {
			return nil, fmt.Errorf("jsonfile: quarantine corrupt file: %w", qerr)
		}
		s.logger.Warn("Corrupt store file set aside, starting empty",
			zap.String("path", s.path), zap.String("moved_to", aside), zap.Error(err))
		return []uptime.Target{}, nil
	}
	for i := range targets {
		normalise(&targets[i])
	}
	return targets, nil
}

func (s *Store) Save(ctx context.Context, targets []uptime.Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if targets == nil {
		targets = []uptime.Target{}
	}
	data, err := json.MarshalIndent(targets, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encode: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("jsonfile: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("jsonfile: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jsonfile: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("jsonfile: replace %s: %w", s.path, err)
	}
	return nil
}

// decodeLegacy reads the first dashboard's layout. Records carrying keys of
// the current layout are rejected so a damaged current file is never
// silently read with its history dropped.
func decodeLegacy(data []byte) ([]uptime.Target, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for i, r := range raw {
		for _, key := range []string{"history", "last_checked", "created_at"} {
			if _, ok := r[key]; ok {
				return nil, fmt.Errorf("record %d: current-layout key %q", i, key)
			}
		}
	}
	var records []uptime.LegacyTarget
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	targets := make([]uptime.Target, len(records))
	for i, r := range records {
		targets[i] = r.Target()
	}
	return targets, nil
}

func (s *Store) quarantine() (string, error) {
	aside := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
	if err := os.Rename(s.path, aside); err != nil {
		return "", err
	}
	return aside, nil
}

// normalise fills fields missing from files written by older versions.
func normalise(t *uptime.Target) {
	if !t.Status.Valid() {
		t.Status = uptime.StatusUnknown
	}
	if !t.LastNotifiedStatus.Valid() {
		t.LastNotifiedStatus = uptime.StatusUnknown
	}
	if t.Interval < 1 {
		t.Interval = uptime.DefaultIntervalSeconds
	}
	if t.History == nil {
		t.History = []uptime.HistoryEntry{}
	}
	if len(t.History) == 0 {
		t.Uptime = 100
	}
}
