package logstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailFollowsAppends(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer s.Close()

	tail, err := NewTail(dir, true)
	require.NoError(t, err)
	defer tail.Close()

	for i := 0; i < 3; i++ {
		_, err := s.Append(testRecord("sess_tail", i))
		require.NoError(t, err)
	}

	recs, err := tail.Poll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.EqualValues(t, 1, recs[0].Seq)
	assert.EqualValues(t, 3, recs[2].Seq)

	// Nothing new: empty poll.
	recs, err = tail.Poll()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestTailSkipsExistingWhenNotFromStart(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Append(testRecord("sess_tail", 0))
	require.NoError(t, err)

	tail, err := NewTail(dir, false)
	require.NoError(t, err)
	defer tail.Close()

	recs, err := tail.Poll()
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = s.Append(testRecord("sess_tail", 1))
	require.NoError(t, err)

	recs, err = tail.Poll()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.EqualValues(t, 2, recs[0].Seq)
}

func TestTailSurvivesRotation(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, Options{MaxSegmentSize: 1024, Flush: FlushPerRecord})
	require.NoError(t, err)
	defer s.Close()

	tail, err := NewTail(dir, true)
	require.NoError(t, err)
	defer tail.Close()

	var seen uint64
	total := 0
	for total < 20 {
		_, err := s.Append(testRecord("sess_tail_rot", total))
		require.NoError(t, err)
		total++

		recs, err := tail.Poll()
		require.NoError(t, err)
		for _, rec := range recs {
			assert.Equal(t, seen+1, rec.Seq, "tail must not skip or reorder across rotation")
			seen = rec.Seq
		}
	}

	segs, err := ListSegments(dir)
	require.NoError(t, err)
	require.Greater(t, len(segs), 1, "test needs at least one rotation to be meaningful")
	assert.EqualValues(t, total, seen)
}

func TestTailHandlesMissingLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	tail, err := NewTail(dir, true)
	require.NoError(t, err)
	defer tail.Close()

	recs, err := tail.Poll()
	require.NoError(t, err)
	assert.Empty(t, recs)
}
