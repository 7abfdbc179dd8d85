package logstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hooklog/hooklog/internal/domain"
)

func recordLine(t *testing.T, seq uint64, data map[string]any) string {
	t.Helper()
	b, err := json.Marshal(&domain.LogRecord{
		Type:          domain.RecordType,
		SchemaVersion: domain.SchemaVersion,
		Seq:           seq,
		ReceivedAt:    "2026-08-23T12:00:00Z",
		HookEventName: "PreToolUse",
		SessionID:     "sess_r",
		Data:          data,
	})
	require.NoError(t, err)
	return string(b) + "\n"
}

func writeActive(t *testing.T, dir, content string) SegmentInfo {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ActiveName), []byte(content), 0o644))
	segs, err := ListSegments(dir)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	return segs[0]
}

func TestLastRecordReadsOnlyTheTail(t *testing.T) {
	dir := t.TempDir()

	// Enough bulk that a full forward scan would visit thousands of records;
	// recovery must still land on the final one.
	var sb strings.Builder
	const count = 5000
	for i := 1; i <= count; i++ {
		sb.WriteString(recordLine(t, uint64(i), map[string]any{"i": i}))
	}
	seg := writeActive(t, dir, sb.String())

	rec, err := lastRecord(seg)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.EqualValues(t, count, rec.Seq)

	s, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer s.Close()
	assert.EqualValues(t, count+1, s.NextSeq())
}

func TestLastRecordCrossesChunkBoundaries(t *testing.T) {
	dir := t.TempDir()

	// The final line is far larger than the backward read granularity, so the
	// reader has to stitch it together across several chunks.
	blob := strings.Repeat("x", 3*tailChunk)
	content := recordLine(t, 1, nil) + recordLine(t, 2, map[string]any{"blob": blob})
	seg := writeActive(t, dir, content)

	rec, err := lastRecord(seg)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.EqualValues(t, 2, rec.Seq)
	assert.Equal(t, blob, rec.Data["blob"])
}

func TestLastRecordSkipsInterruptedFinalWrite(t *testing.T) {
	dir := t.TempDir()

	content := recordLine(t, 1, nil) + recordLine(t, 2, nil) + `{"type":"record","seq":3,"hook_`
	seg := writeActive(t, dir, content)

	rec, err := lastRecord(seg)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.EqualValues(t, 2, rec.Seq)
}

func TestLastRecordEmptyAndPartialOnlySegments(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		seg := writeActive(t, t.TempDir(), "")
		rec, err := lastRecord(seg)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("only a partial line", func(t *testing.T) {
		seg := writeActive(t, t.TempDir(), `{"type":"rec`)
		rec, err := lastRecord(seg)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

// Tampered mid-segment corruption must not hide the committed records after
// it: recovery takes the latest parseable record, never an earlier one.
func TestLastRecordRecoversPastMidSegmentCorruption(t *testing.T) {
	dir := t.TempDir()

	content := recordLine(t, 1, nil) +
		"garbage that is not json\n" +
		recordLine(t, 3, nil)
	writeActive(t, dir, content)

	s, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer s.Close()
	assert.EqualValues(t, 4, s.NextSeq(),
		"recovery must see the record after the corrupt line")
}

func TestScanSegmentLenientTolerance(t *testing.T) {
	t.Run("trailing partial line is absent, not an error", func(t *testing.T) {
		dir := t.TempDir()
		writeActive(t, dir, recordLine(t, 1, nil)+recordLine(t, 2, nil)+`{"cut`)

		recs, err := ReadAll(dir)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.EqualValues(t, 2, recs[1].Seq)
	})

	t.Run("corruption followed by records is an error", func(t *testing.T) {
		dir := t.TempDir()
		writeActive(t, dir, recordLine(t, 1, nil)+"garbage\n"+recordLine(t, 3, nil))

		_, err := ReadAll(dir)
		require.Error(t, err)
		var cre *CorruptRecordError
		require.ErrorAs(t, err, &cre)
		assert.Equal(t, 2, cre.Line, "the error must name the corrupt line itself")
	})

	t.Run("corruption followed only by blank lines is absent", func(t *testing.T) {
		dir := t.TempDir()
		writeActive(t, dir, recordLine(t, 1, nil)+`{"cut`+"\n\n\n")

		recs, err := ReadAll(dir)
		require.NoError(t, err)
		require.Len(t, recs, 1)
	})
}

func TestStrictScanStillFailsOnAnyCorruption(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	sealed := filepath.Join(dir, fmt.Sprintf("%s.1", ActiveName))
	require.NoError(t, os.WriteFile(sealed, []byte(recordLine(t, 1, nil)+`{"cut`), 0o644))

	segs, err := ListSegments(dir)
	require.NoError(t, err)

	err = ScanSegment(segs[0], func(*domain.LogRecord) error { return nil })
	require.Error(t, err)
	var cre *CorruptRecordError
	assert.ErrorAs(t, err, &cre)
}
