package logstore

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/hooklog/hooklog/internal/domain"
)

// Tail follows the active segment across rotations. It is a poll-driven
// reader for watch/ui style consumers; the writer never knows it exists.
type Tail struct {
	mu      sync.Mutex
	dir     string
	f       *os.File
	offset  int64
	partial []byte // bytes of an incomplete trailing line between polls
}

// NewTail creates a follower. With fromStart false it skips everything
// already in the active segment and only reports new records.
func NewTail(dir string, fromStart bool) (*Tail, error) {
	t := &Tail{dir: dir}
	if !fromStart {
		if st, err := os.Stat(t.activePath()); err == nil {
			t.offset = st.Size()
		}
	}
	return t, nil
}

func (t *Tail) activePath() string {
	return filepath.Join(t.dir, ActiveName)
}

// Poll returns records appended since the previous poll. On rotation the
// remainder of the sealed file is drained before the new active segment is
// picked up, so no record is skipped or reordered.
func (t *Tail) Poll() ([]*domain.LogRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []*domain.LogRecord
	for {
		recs, rotated, err := t.pollOnce()
		if err != nil {
			return out, err
		}
		out = append(out, recs...)
		if !rotated {
			return out, nil
		}
	}
}

func (t *Tail) pollOnce() ([]*domain.LogRecord, bool, error) {
	if t.f == nil {
		f, err := os.Open(t.activePath())
		if err != nil {
			if os.IsNotExist(err) {
				return nil, false, nil
			}
			return nil, false, err
		}
		if _, err := f.Seek(t.offset, 0); err != nil {
			f.Close()
			return nil, false, err
		}
		t.f = f
	}

	recs, err := t.readNew()
	if err != nil {
		return nil, false, err
	}

	rotated, err := t.rotatedAway()
	if err != nil {
		return recs, false, err
	}
	if rotated {
		// Drain whatever was written between the last read and the rename,
		// then restart at the top of the new active file.
		more, err := t.readNew()
		if err != nil {
			return recs, false, err
		}
		recs = append(recs, more...)
		t.f.Close()
		t.f = nil
		t.offset = 0
		t.partial = nil
		return recs, true, nil
	}
	return recs, false, nil
}

// rotatedAway reports whether the open handle no longer backs the active path.
func (t *Tail) rotatedAway() (bool, error) {
	cur, err := os.Stat(t.activePath())
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	open, err := t.f.Stat()
	if err != nil {
		return false, err
	}
	return !os.SameFile(cur, open), nil
}

func (t *Tail) readNew() ([]*domain.LogRecord, error) {
	buf := make([]byte, 64<<10)
	var recs []*domain.LogRecord
	for {
		n, err := t.f.Read(buf)
		if n > 0 {
			t.offset += int64(n)
			t.partial = append(t.partial, buf[:n]...)
			for {
				nl := bytes.IndexByte(t.partial, '\n')
				if nl < 0 {
					break
				}
				line := bytes.TrimSpace(t.partial[:nl])
				t.partial = t.partial[nl+1:]
				if len(line) == 0 {
					continue
				}
				var rec domain.LogRecord
				if jerr := json.Unmarshal(line, &rec); jerr == nil {
					recs = append(recs, &rec)
				}
			}
		}
		if err != nil {
			// io.EOF means caught up; anything else surfaces on the next poll.
			return recs, nil
		}
		if n == 0 {
			return recs, nil
		}
	}
}

// Close releases the underlying file handle.
func (t *Tail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.f != nil {
		err := t.f.Close()
		t.f = nil
		return err
	}
	return nil
}
