// Package store persists the whole process state as a JSON snapshot.
//
// The snapshot covers the contact directory, the blacklist, per-user
// timezone preferences, and session records. It is loaded once at
// startup and saved after every mutating operation; a missing file is
// an empty state, and a restart that lost the file simply forgets
// pending sessions.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/saferunner/saferunner/internal/logging"
	"github.com/saferunner/saferunner/internal/session"
)

// Snapshot is the persisted shape of the process state.
type Snapshot struct {
	Contacts  map[int64][]int64        `json:"contacts,omitempty"`
	Blacklist map[int64][]int64        `json:"blacklist,omitempty"`
	Timezones map[int64]string         `json:"timezones,omitempty"`
	Sessions  map[int64]session.Record `json:"sessions,omitempty"`
}

// Store reads and writes snapshots at a fixed path.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a store persisting to path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the snapshot from disk. A missing file yields an empty
// snapshot; a corrupt file is an error so the operator can decide
// whether to delete it.
func (s *Store) Load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{}, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode state file %s: %w", s.path, err)
	}
	return &snap, nil
}

// Save writes the snapshot. The write goes through a temp file and a
// rename so a crash mid-save never leaves a truncated state file.
func (s *Store) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// SaveBestEffort saves and logs instead of failing. Mutation paths use
// this: a persistence hiccup must not fail the user's command.
func (s *Store) SaveBestEffort(snap *Snapshot) {
	if err := s.Save(snap); err != nil {
		logging.Warn("state save failed", logging.Err(err))
	}
}

// Prefs holds per-user preferences, currently the display timezone.
type Prefs struct {
	mu        sync.RWMutex
	timezones map[int64]string
	fallback  string
}

// NewPrefs creates a preference registry with the given default
// timezone name.
func NewPrefs(defaultTZ string) *Prefs {
	return &Prefs{
		timezones: make(map[int64]string),
		fallback:  defaultTZ,
	}
}

// Timezone returns the user's configured timezone name, or the default.
func (p *Prefs) Timezone(chatID int64) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if tz, ok := p.timezones[chatID]; ok {
		return tz
	}
	return p.fallback
}

// SetTimezone records the user's timezone name.
func (p *Prefs) SetTimezone(chatID int64, tz string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timezones[chatID] = tz
}

// Export returns a copy of all configured timezones.
func (p *Prefs) Export() map[int64]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[int64]string, len(p.timezones))
	for id, tz := range p.timezones {
		out[id] = tz
	}
	return out
}

// Restore replaces the registry from a persisted snapshot.
func (p *Prefs) Restore(timezones map[int64]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timezones = make(map[int64]string, len(timezones))
	for id, tz := range timezones {
		p.timezones[id] = tz
	}
}
