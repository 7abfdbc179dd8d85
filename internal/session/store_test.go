package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hooklog/hooklog/internal/domain"
)

func event(name, session string) *domain.Event {
	return &domain.Event{HookEventName: name, SessionID: session}
}

func TestApplyCreatesState(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Unix(1_700_000_000, 0))
	s := NewStore(t.TempDir(), clk)

	require.NoError(t, s.Apply(event("SessionStart", "sess_1"), 1))

	rec, err := s.Load("sess_1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "working", rec.State)
	assert.EqualValues(t, 1_700_000_000, rec.FirstSeen)
	assert.Equal(t, 1, rec.EventCount)
	assert.Equal(t, "SessionStart", rec.LastEvent)
	assert.EqualValues(t, 1, rec.LastSeq)
}

func TestApplyPreservesFirstSeenAndCounts(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Unix(1_700_000_000, 0))
	s := NewStore(t.TempDir(), clk)

	require.NoError(t, s.Apply(event("SessionStart", "sess_1"), 1))
	clk.Add(90 * time.Second)
	require.NoError(t, s.Apply(event("Notification", "sess_1"), 2))
	clk.Add(90 * time.Second)
	require.NoError(t, s.Apply(event("SessionEnd", "sess_1"), 3))

	rec, err := s.Load("sess_1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.EqualValues(t, 1_700_000_000, rec.FirstSeen, "first_seen survives later events")
	assert.EqualValues(t, 1_700_000_180, rec.UpdatedAt)
	assert.Equal(t, 3, rec.EventCount)
	assert.Equal(t, "finished", rec.State)
	assert.EqualValues(t, 3, rec.LastSeq)
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		event string
		state string
	}{
		{"SessionStart", "working"},
		{"UserPromptSubmit", "working"},
		{"PreToolUse", "working"},
		{"Notification", "waiting"},
		{"Stop", "finished"},
		{"SubagentStop", "finished"},
		{"SessionEnd", "finished"},
	}

	s := NewStore(t.TempDir(), clock.NewMock())
	for i, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			require.NoError(t, s.Apply(event(tt.event, "sess_states"), uint64(i+1)))
			rec, err := s.Load("sess_states")
			require.NoError(t, err)
			assert.Equal(t, tt.state, rec.State)
		})
	}
}

func TestApplyWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, clock.NewMock())

	require.NoError(t, s.Apply(event("SessionStart", "sess_atomic"), 1))

	// No temp leftovers and the state file is complete JSON.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sess_atomic.json", entries[0].Name())

	b, err := os.ReadFile(filepath.Join(dir, "sess_atomic.json"))
	require.NoError(t, err)
	assert.True(t, len(b) > 0 && b[len(b)-1] == '\n')
}

func TestLoadUnknownSessionIsNil(t *testing.T) {
	s := NewStore(t.TempDir(), clock.NewMock())
	rec, err := s.Load("nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestList(t *testing.T) {
	s := NewStore(t.TempDir(), clock.NewMock())
	require.NoError(t, s.Apply(event("SessionStart", "sess_a"), 1))
	require.NoError(t, s.Apply(event("SessionEnd", "sess_b"), 2))

	recs, err := s.List()
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}
