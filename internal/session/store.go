// Package session maintains one small state file per logical session,
// derived from the accepted event stream. Writes are atomic (temp file +
// rename) so a reader never observes a torn state.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/benbjohnson/clock"
	json "github.com/goccy/go-json"

	"github.com/hooklog/hooklog/internal/domain"
)

// stateVersion is bumped when the state file shape changes.
const stateVersion = 1

// Record is the persisted per-session state.
type Record struct {
	Version    int    `json:"version"`
	SessionID  string `json:"session_id"`
	State      string `json:"state"` // working | waiting | finished
	FirstSeen  int64  `json:"first_seen"` // unix seconds
	UpdatedAt  int64  `json:"updated_at"`
	EventCount int    `json:"event_count"`
	LastEvent  string `json:"last_event"`
	LastSeq    uint64 `json:"last_seq"`
}

// Store reads and writes session state files under one directory. Session
// ids have been validated (non-empty, bounded, restricted to [a-zA-Z0-9_-])
// before they ever become a filename component.
type Store struct {
	mu  sync.Mutex
	dir string
	clk clock.Clock
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	return &Store{dir: dir, clk: clk}
}

// Dir returns the state directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// Apply folds one accepted event into the session's state file, preserving
// first_seen and incrementing event_count across invocations.
func (s *Store) Apply(ev *domain.Event, seq uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now().Unix()
	rec := &Record{
		Version:    stateVersion,
		SessionID:  ev.SessionID,
		State:      string(ev.Type().SessionState()),
		FirstSeen:  now,
		UpdatedAt:  now,
		EventCount: 1,
		LastEvent:  ev.HookEventName,
		LastSeq:    seq,
	}

	if prev, err := s.loadLocked(ev.SessionID); err == nil && prev != nil {
		if prev.FirstSeen > 0 {
			rec.FirstSeen = prev.FirstSeen
		}
		rec.EventCount = prev.EventCount + 1
	}

	return s.saveLocked(rec)
}

// Load returns the state for one session, or nil when none exists yet.
func (s *Store) Load(sessionID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(sessionID)
}

func (s *Store) loadLocked(sessionID string) (*Record, error) {
	b, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse session state: %w", err)
	}
	return &rec, nil
}

// List returns every known session state, in directory order.
func (s *Store) List() ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var recs []*Record
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		id := e.Name()[:len(e.Name())-len(".json")]
		rec, err := s.loadLocked(id)
		if err != nil || rec == nil {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *Store) saveLocked(rec *Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}
	b = append(b, '\n')

	path := s.path(rec.SessionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to publish session state: %w", err)
	}
	return nil
}
