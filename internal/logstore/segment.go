package logstore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// ActiveName is the filename of the writable segment. Sealed segments are
// ActiveName.<index> (optionally .gz); indexes grow over time, so enumerating
// sealed segments ascending and finishing with the active file reproduces
// arrival order.
const ActiveName = "events.log"

var sealedRe = regexp.MustCompile(`^events\.log\.([0-9]+)(\.gz)?$`)

// SegmentInfo describes one on-disk segment.
type SegmentInfo struct {
	Index      int // sealed index; the active segment carries the next unused index
	Path       string
	Size       int64
	Compressed bool
	Active     bool
}

// ListSegments enumerates the log directory in chronological order: sealed
// segments by ascending index, then the active segment if present. A missing
// directory is an empty log, not an error.
func ListSegments(dir string) ([]SegmentInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}

	var segs []SegmentInfo
	var active *SegmentInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		if name == ActiveName {
			active = &SegmentInfo{Path: filepath.Join(dir, name), Size: info.Size(), Active: true}
			continue
		}
		m := sealedRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 {
			continue
		}
		segs = append(segs, SegmentInfo{
			Index:      idx,
			Path:       filepath.Join(dir, name),
			Size:       info.Size(),
			Compressed: m[2] == ".gz",
		})
	}

	sort.Slice(segs, func(i, j int) bool { return segs[i].Index < segs[j].Index })

	if active != nil {
		active.Index = 1
		if n := len(segs); n > 0 {
			active.Index = segs[n-1].Index + 1
		}
		segs = append(segs, *active)
	}
	return segs, nil
}

// sealedPath returns the name a sealed segment takes for a given index.
func sealedPath(dir string, index int, compressed bool) string {
	p := filepath.Join(dir, fmt.Sprintf("%s.%d", ActiveName, index))
	if compressed {
		p += ".gz"
	}
	return p
}
