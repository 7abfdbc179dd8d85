package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hooklog/hooklog/internal/domain"
	"github.com/hooklog/hooklog/internal/logstore"
	"github.com/hooklog/hooklog/internal/session"
	"github.com/hooklog/hooklog/internal/validate"
)

func newTestProcessor(t *testing.T, withSessions bool) (*Processor, *logstore.Store, *session.Store, *clock.Mock) {
	t.Helper()
	store, err := logstore.Open(t.TempDir(), logstore.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clk := clock.NewMock()
	clk.Set(time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC))

	var sessions *session.Store
	if withSessions {
		sessions = session.NewStore(t.TempDir(), clk)
	}
	return New(validate.New(validate.DefaultLimits()), store, sessions, clk), store, sessions, clk
}

func validPayload(session string, i int) []byte {
	return []byte(fmt.Sprintf(`{"hook_event_name":"UserPromptSubmit","session_id":%q,"timestamp":"1700000000000000","data":{"message_id":"msg_%d"}}`, session, i))
}

func TestProcessAccepted(t *testing.T) {
	p, store, sessions, _ := newTestProcessor(t, true)

	out := p.Process(validPayload("sess_1", 1))
	require.Equal(t, Accepted, out.Kind)
	require.NoError(t, out.Err)
	assert.EqualValues(t, 1, out.Seq)
	require.NotNil(t, out.Event)

	recs, err := logstore.ReadAll(store.Dir())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "2026-08-23T12:00:00Z", recs[0].ReceivedAt)
	assert.EqualValues(t, 1, recs[0].Seq)

	state, err := sessions.Load("sess_1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.EqualValues(t, 1, state.LastSeq)
}

func TestProcessRejectedNeverTouchesLog(t *testing.T) {
	p, store, _, _ := newTestProcessor(t, false)

	// Seed one good record so size is nonzero.
	require.Equal(t, Accepted, p.Process(validPayload("sess_1", 1)).Kind)
	before := store.ActiveSize()
	seqBefore := store.NextSeq()

	bad := [][]byte{
		[]byte(``),
		[]byte(`{"invalid": "json"`),
		[]byte(`{}`),
		[]byte(`{"hook_event_name":"InvalidEvent","session_id":"sess_1"}`),
		[]byte(`{"hook_event_name":"SessionStart","session_id":""}`),
	}
	for _, payload := range bad {
		out := p.Process(payload)
		assert.Equal(t, Rejected, out.Kind)
		assert.Error(t, out.Err)
		assert.Contains(t, out.Err.Error(), "validation failed")
	}

	assert.Equal(t, before, store.ActiveSize(), "rejected input must not grow the log")
	assert.Equal(t, seqBefore, store.NextSeq(), "rejected input must not consume sequence numbers")
}

// A session id that names a path must never reach the state store: the
// event is rejected outright and no file appears outside the sessions dir.
func TestProcessRejectsTraversalSessionID(t *testing.T) {
	p, store, sessions, _ := newTestProcessor(t, true)

	out := p.Process([]byte(`{"hook_event_name":"SessionStart","session_id":"../../escaped"}`))
	require.Equal(t, Rejected, out.Kind)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "validation failed")

	kind, ok := validate.KindOf(out.Err)
	require.True(t, ok)
	assert.Equal(t, validate.KindInvalidSessionID, kind)

	recs, err := logstore.ReadAll(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, recs)

	escaped := filepath.Join(sessions.Dir(), "..", "..", "escaped.json")
	_, statErr := os.Stat(escaped)
	assert.True(t, os.IsNotExist(statErr), "state file must not escape the sessions directory")
}

func TestProcessFailedOnClosedStore(t *testing.T) {
	p, store, _, _ := newTestProcessor(t, false)
	require.NoError(t, store.Close())

	out := p.Process(validPayload("sess_1", 1))
	assert.Equal(t, Failed, out.Kind)
	require.Error(t, out.Err)
	assert.NotContains(t, out.Err.Error(), "validation failed",
		"system faults must be distinguishable from rejections")
}

func TestConcurrentProcessKeepsTotalOrder(t *testing.T) {
	p, store, _, _ := newTestProcessor(t, true)

	const workers = 8
	const perWorker = 10

	var wg sync.WaitGroup
	outcomes := make(chan Outcome, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				outcomes <- p.Process(validPayload(fmt.Sprintf("sess_%d", w), i))
			}
		}(w)
	}
	wg.Wait()
	close(outcomes)

	seen := map[uint64]bool{}
	for out := range outcomes {
		require.Equal(t, Accepted, out.Kind)
		assert.False(t, seen[out.Seq], "duplicate sequence %d", out.Seq)
		seen[out.Seq] = true
	}
	require.Len(t, seen, workers*perWorker)

	recs, err := logstore.ReadAll(store.Dir())
	require.NoError(t, err)
	require.Len(t, recs, workers*perWorker)
	var prev uint64
	for _, rec := range recs {
		assert.Greater(t, rec.Seq, prev)
		prev = rec.Seq
	}
}

func TestProcessSequenceStrictlyIncreases(t *testing.T) {
	p, _, _, clk := newTestProcessor(t, false)

	var prev uint64
	for i := 0; i < 20; i++ {
		clk.Add(time.Millisecond)
		out := p.Process(validPayload("sess_seq", i))
		require.Equal(t, Accepted, out.Kind)
		assert.Greater(t, out.Seq, prev)
		prev = out.Seq
	}
}

func TestRecordEnrichment(t *testing.T) {
	p, store, _, clk := newTestProcessor(t, false)
	clk.Set(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	out := p.Process([]byte(`{"hook_event_name":"Notification","session_id":"sess_n","timestamp":"1700000000000001","data":{"notification_type":"user_input_required","message":"hi"}}`))
	require.Equal(t, Accepted, out.Kind)

	recs, err := logstore.ReadAll(store.Dir())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, domain.RecordType, rec.Type)
	assert.Equal(t, domain.SchemaVersion, rec.SchemaVersion)
	assert.Equal(t, "2026-01-02T03:04:05Z", rec.ReceivedAt)
	assert.Equal(t, "1700000000000001", rec.Timestamp)
	assert.Equal(t, "user_input_required", rec.Data["notification_type"])
}
