package logstore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/hooklog/hooklog/internal/domain"
)

// Scanner line buffer sizing: a record line can approach the payload ceiling,
// so allow well past it.
const maxLineBytes = 4 << 20

// CorruptRecordError reports an unparseable line inside a segment.
type CorruptRecordError struct {
	Segment SegmentInfo
	Line    int
	Err     error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt record in %s line %d: %v", e.Segment.Path, e.Line, e.Err)
}

// ForEach walks every record in the log in arrival order: sealed segments by
// ascending index, records by position. A trailing unparseable line in the
// active segment is skipped (an interrupted final write under the cooperative
// single-writer model); anywhere else it is a CorruptRecordError.
func ForEach(dir string, fn func(seg SegmentInfo, rec *domain.LogRecord) error) error {
	segs, err := ListSegments(dir)
	if err != nil {
		return err
	}
	for _, seg := range segs {
		if err := scanSegment(seg, !seg.Active, fn); err != nil {
			return err
		}
	}
	return nil
}

// ReadAll loads the whole log into memory in arrival order.
func ReadAll(dir string) ([]*domain.LogRecord, error) {
	var recs []*domain.LogRecord
	err := ForEach(dir, func(_ SegmentInfo, rec *domain.LogRecord) error {
		recs = append(recs, rec)
		return nil
	})
	return recs, err
}

// ScanSegment walks one segment strictly: every line must parse.
func ScanSegment(seg SegmentInfo, fn func(rec *domain.LogRecord) error) error {
	return scanSegment(seg, true, func(_ SegmentInfo, rec *domain.LogRecord) error {
		return fn(rec)
	})
}

func scanSegment(seg SegmentInfo, strict bool, fn func(seg SegmentInfo, rec *domain.LogRecord) error) error {
	f, err := os.Open(seg.Path)
	if err != nil {
		return fmt.Errorf("failed to open segment: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if seg.Compressed {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return &CorruptRecordError{Segment: seg, Line: 0, Err: err}
		}
		defer zr.Close()
		r = zr
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), maxLineBytes)

	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec domain.LogRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			corrupt := &CorruptRecordError{Segment: seg, Line: line, Err: err}
			if strict {
				return corrupt
			}
			// Lenient mode tolerates exactly one unparseable line, and only
			// in final position: an interrupted last write never committed,
			// so the record is simply absent. An unparseable line with
			// anything after it is corruption even here.
			for sc.Scan() {
				if len(bytes.TrimSpace(sc.Bytes())) > 0 {
					return corrupt
				}
			}
			if err := sc.Err(); err != nil {
				return fmt.Errorf("failed to scan segment %s: %w", seg.Path, err)
			}
			return nil
		}
		if err := fn(seg, &rec); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to scan segment %s: %w", seg.Path, err)
	}
	return nil
}

// tailChunk is the backward read granularity for sequence recovery.
const tailChunk = 64 << 10

// lastRecord returns the final parseable record of a segment, or nil when the
// segment holds none. Used for sequence recovery on open. Plain segments are
// read backwards from EOF so every open costs a tail read, not a full scan;
// compressed segments cannot seek and stream forward instead.
func lastRecord(seg SegmentInfo) (*domain.LogRecord, error) {
	if seg.Compressed {
		return lastRecordForward(seg)
	}
	return lastRecordBackward(seg)
}

func lastRecordBackward(seg SegmentInfo) (*domain.LogRecord, error) {
	f, err := os.Open(seg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open segment: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat segment: %w", err)
	}

	pos := st.Size()
	var buf []byte
	for pos > 0 {
		n := int64(tailChunk)
		if n > pos {
			n = pos
		}
		pos -= n
		chunk := make([]byte, n)
		if _, err := f.ReadAt(chunk, pos); err != nil {
			return nil, fmt.Errorf("failed to read segment tail: %w", err)
		}
		buf = append(chunk, buf...)

		lines := bytes.Split(buf, []byte{'\n'})
		// lines[0] may still be cut off by the unread prefix.
		first := 1
		if pos == 0 {
			first = 0
		}
		for i := len(lines) - 1; i >= first; i-- {
			raw := bytes.TrimSpace(lines[i])
			if len(raw) == 0 {
				continue
			}
			var rec domain.LogRecord
			if err := json.Unmarshal(raw, &rec); err == nil {
				return &rec, nil
			}
			// An unparseable tail line is an interrupted final write; keep
			// walking back to the last committed record.
		}
		if len(buf) > 2*maxLineBytes {
			// No newline-delimited record within any plausible line length.
			return nil, nil
		}
	}
	return nil, nil
}

func lastRecordForward(seg SegmentInfo) (*domain.LogRecord, error) {
	var last *domain.LogRecord
	err := scanSegment(seg, false, func(_ SegmentInfo, rec *domain.LogRecord) error {
		last = rec
		return nil
	})
	if err != nil {
		// A corrupt line mid-segment only happens after external tampering;
		// recovery still wants the furthest good record before it.
		var cre *CorruptRecordError
		if errors.As(err, &cre) {
			return last, nil
		}
		return nil, err
	}
	return last, nil
}
