package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"

	"github.com/hooklog/hooklog/internal/logstore"
	"github.com/hooklog/hooklog/internal/output"
)

// PruneCmd deletes old sealed segments. The active segment is never touched,
// so the log keeps accepting writes while history is trimmed.
type PruneCmd struct {
	Keep   int           `help:"Number of sealed segments to keep" default:"-1"`
	MaxAge time.Duration `help:"Delete sealed segments older than this (e.g. 720h)"`
	DryRun bool          `help:"Show what would be deleted without deleting"`
}

// Run executes the prune command
func (c *PruneCmd) Run(globals *Globals) error {
	cfg := globals.Config

	keep := c.Keep
	if keep < 0 {
		keep = cfg.Log.MaxSealedSegments
	}

	segs, err := logstore.ListSegments(cfg.EventsDir())
	if err != nil {
		return outputErrorCommon(globals, "prune_list_failed", err.Error())
	}
	sealed := lo.Filter(segs, func(s logstore.SegmentInfo, _ int) bool { return !s.Active })

	var victims []logstore.SegmentInfo
	if len(sealed) > keep {
		victims = sealed[:len(sealed)-keep]
	}
	if c.MaxAge > 0 {
		cutoff := time.Now().Add(-c.MaxAge)
		for _, s := range sealed {
			st, err := os.Stat(s.Path)
			if err != nil {
				continue
			}
			if st.ModTime().Before(cutoff) && !lo.ContainsBy(victims, func(v logstore.SegmentInfo) bool {
				return v.Path == s.Path
			}) {
				victims = append(victims, s)
			}
		}
	}

	var freed int64
	var deleted []string
	for _, s := range victims {
		freed += s.Size
		deleted = append(deleted, filepath.Base(s.Path))
		if c.DryRun {
			continue
		}
		if err := os.Remove(s.Path); err != nil {
			return outputErrorCommon(globals, "prune_delete_failed", err.Error())
		}
	}

	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).WriteValue(map[string]any{
			"type":          "prune",
			"schemaVersion": output.SchemaVersion,
			"deleted":       len(deleted),
			"freed_bytes":   freed,
			"dry_run":       c.DryRun,
			"segments":      deleted,
		})
	}
	if !globals.Quiet {
		verb := "Deleted"
		if c.DryRun {
			verb = "Would delete"
		}
		fmt.Fprintf(globals.Stdout, "%s %d sealed segments (%d bytes)\n", verb, len(deleted), freed)
	}
	return nil
}
