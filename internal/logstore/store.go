// Package logstore is the durable, size-bounded, ordered append log. One
// active segment file is writable at a time; sealed segments are read-only
// and eligible for retention pruning. Append, the size check, rotation, and
// sequence assignment form a single critical section, so concurrent
// invocations can never interleave partial writes or race the rotation
// decision.
package logstore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/hooklog/hooklog/internal/domain"
)

// FlushPolicy decides when buffered record bytes reach the OS.
type FlushPolicy string

const (
	// FlushPerRecord flushes after every append. This is the default: the
	// external contract is one process per event, so the flush happens once
	// per process anyway and buys durability at the record boundary.
	FlushPerRecord FlushPolicy = "per-record"
	// FlushBuffered defers flushing to rotation and close. Used for bulk
	// replay, where per-record flushing would dominate the import time.
	FlushBuffered FlushPolicy = "buffered"
)

// Options configure a Store.
type Options struct {
	MaxSegmentSize int64 // active segment seals before exceeding this
	Flush          FlushPolicy
	CompressSealed bool // gzip segments as they seal
}

// DefaultOptions returns the stock configuration: 10 MiB segments,
// per-record flush, no compression.
func DefaultOptions() Options {
	return Options{
		MaxSegmentSize: 10 << 20,
		Flush:          FlushPerRecord,
	}
}

// Store owns the active segment and the sequence counter. All mutation goes
// through Append under one mutex; there are no other writers.
type Store struct {
	mu        sync.Mutex
	dir       string
	opts      Options
	active    *os.File
	w         *bufio.Writer
	size      int64
	nextSeq   uint64
	nextIndex int // index the active segment takes when it seals
	closed    bool
}

// Open opens (creating if needed) the log at dir and recovers the next
// sequence number and sealed-segment index from what is already on disk.
func Open(dir string, opts Options) (*Store, error) {
	if opts.MaxSegmentSize <= 0 {
		opts.MaxSegmentSize = DefaultOptions().MaxSegmentSize
	}
	if opts.Flush == "" {
		opts.Flush = FlushPerRecord
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	s := &Store{dir: dir, opts: opts, nextSeq: 1, nextIndex: 1}

	segs, err := ListSegments(dir)
	if err != nil {
		return nil, err
	}
	for i := len(segs) - 1; i >= 0; i-- {
		last, err := lastRecord(segs[i])
		if err != nil {
			return nil, err
		}
		if last != nil {
			s.nextSeq = last.Seq + 1
			break
		}
	}
	if n := len(segs); n > 0 {
		s.nextIndex = segs[n-1].Index
		if !segs[n-1].Active {
			s.nextIndex++
		}
	}

	if err := s.openActive(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) openActive() error {
	f, err := os.OpenFile(s.activePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open active segment: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat active segment: %w", err)
	}
	s.active = f
	s.w = bufio.NewWriter(f)
	s.size = st.Size()
	return nil
}

func (s *Store) activePath() string {
	return filepath.Join(s.dir, ActiveName)
}

// Dir returns the log directory.
func (s *Store) Dir() string { return s.dir }

// ActiveSize returns the current byte size of the active segment, including
// bytes still sitting in the write buffer.
func (s *Store) ActiveSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// NextSeq returns the sequence number the next accepted record will get.
func (s *Store) NextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSeq
}

// Append assigns rec the next sequence number and writes it as one
// self-delimited line. If the write would push the active segment past its
// size bound, the segment seals first and the record opens a new one: a
// record is never split across segments. The sequence counter only advances
// on success, so a failed append leaves no gap.
func (s *Store) Append(rec *domain.LogRecord) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("append to closed store")
	}

	rec.Seq = s.nextSeq
	line, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("failed to encode record: %w", err)
	}
	line = append(line, '\n')

	if s.size > 0 && s.size+int64(len(line)) > s.opts.MaxSegmentSize {
		if err := s.rotateLocked(); err != nil {
			return 0, err
		}
	}

	n, err := s.w.Write(line)
	if err != nil {
		return 0, fmt.Errorf("failed to append record: %w", err)
	}
	if s.opts.Flush == FlushPerRecord {
		if err := s.w.Flush(); err != nil {
			return 0, fmt.Errorf("failed to flush record: %w", err)
		}
	}

	s.size += int64(n)
	s.nextSeq++
	return rec.Seq, nil
}

// rotateLocked seals the active segment and opens a fresh one. Callers hold s.mu.
func (s *Store) rotateLocked() error {
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush before rotation: %w", err)
	}
	if err := s.active.Sync(); err != nil {
		return fmt.Errorf("failed to sync before rotation: %w", err)
	}
	if err := s.active.Close(); err != nil {
		return fmt.Errorf("failed to close active segment: %w", err)
	}

	sealed := sealedPath(s.dir, s.nextIndex, false)
	if err := os.Rename(s.activePath(), sealed); err != nil {
		return fmt.Errorf("failed to seal segment: %w", err)
	}
	if s.opts.CompressSealed {
		if err := compressSegment(sealed); err != nil {
			return err
		}
	}
	s.nextIndex++

	return s.openActive()
}

// Sync flushes buffered bytes and forces them to stable storage.
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.active.Sync()
}

// Close flushes and closes the active segment. The store is unusable afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.w.Flush(); err != nil {
		s.active.Close()
		return err
	}
	return s.active.Close()
}

// compressSegment gzips a freshly sealed segment in place. The compressed
// file appears under a temp name first so a reader never sees a half-written
// .gz next to the original.
func compressSegment(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open sealed segment: %w", err)
	}
	defer src.Close()

	tmp := path + ".gz.tmp"
	dst, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create compressed segment: %w", err)
	}

	zw := gzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		dst.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to compress segment: %w", err)
	}
	if err := zw.Close(); err != nil {
		dst.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to finish compressed segment: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path+".gz"); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to publish compressed segment: %w", err)
	}
	return os.Remove(path)
}
