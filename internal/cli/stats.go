package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/hooklog/hooklog/internal/domain"
	"github.com/hooklog/hooklog/internal/logstore"
	"github.com/hooklog/hooklog/internal/output"
	"github.com/hooklog/hooklog/internal/session"
)

// StatsCmd summarizes the on-disk log: record and segment counts, sequence
// range, bytes on disk, and a per-event-type breakdown.
type StatsCmd struct {
	Segments bool `help:"Include a per-segment size listing"`
}

// Run executes the stats command
func (c *StatsCmd) Run(globals *Globals) error {
	cfg := globals.Config

	segs, err := logstore.ListSegments(cfg.EventsDir())
	if err != nil {
		return outputErrorCommon(globals, "stats_list_failed", err.Error())
	}

	stats := &output.Stats{
		Segments:    len(segs),
		TotalBytes:  lo.SumBy(segs, func(s logstore.SegmentInfo) int64 { return s.Size }),
		ByEventType: map[string]int{},
	}

	err = logstore.ForEach(cfg.EventsDir(), func(_ logstore.SegmentInfo, rec *domain.LogRecord) error {
		stats.Records++
		stats.ByEventType[rec.HookEventName]++
		if stats.FirstSeq == 0 {
			stats.FirstSeq = rec.Seq
		}
		stats.LastSeq = rec.Seq
		return nil
	})
	if err != nil {
		return outputErrorCommon(globals, "stats_scan_failed", err.Error(),
			"run 'hooklog verify' to locate the corrupt record")
	}

	sessions, _ := session.NewStore(cfg.SessionsDir(), nil).List()
	stats.Sessions = len(sessions)

	if c.Segments {
		stats.SegmentSizes = lo.Map(segs, func(s logstore.SegmentInfo, _ int) map[string]any {
			return map[string]any{
				"name":       filepath.Base(s.Path),
				"bytes":      s.Size,
				"compressed": s.Compressed,
				"active":     s.Active,
			}
		})
	}

	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).WriteStats(stats)
	}

	fmt.Fprintf(globals.Stdout, "Records:  %d\n", stats.Records)
	fmt.Fprintf(globals.Stdout, "Sessions: %d\n", stats.Sessions)
	fmt.Fprintf(globals.Stdout, "Segments: %d\n", stats.Segments)
	if stats.Records > 0 {
		fmt.Fprintf(globals.Stdout, "Seq:      %d..%d\n", stats.FirstSeq, stats.LastSeq)
	}
	fmt.Fprintf(globals.Stdout, "Bytes:    %d\n", stats.TotalBytes)

	if len(stats.ByEventType) > 0 {
		fmt.Fprintln(globals.Stdout)
		table := tablewriter.NewTable(globals.Stdout)
		table.Header("Event Type", "Count")
		names := lo.Keys(stats.ByEventType)
		sort.Strings(names)
		for _, name := range names {
			table.Append([]string{name, fmt.Sprintf("%d", stats.ByEventType[name])})
		}
		table.Render()
	}

	if c.Segments && len(segs) > 0 {
		fmt.Fprintln(globals.Stdout)
		table := tablewriter.NewTable(globals.Stdout)
		table.Header("Segment", "Bytes", "State")
		for _, s := range segs {
			state := "sealed"
			if s.Active {
				state = "active"
			} else if s.Compressed {
				state = "sealed (gz)"
			}
			table.Append([]string{filepath.Base(s.Path), fmt.Sprintf("%d", s.Size), state})
		}
		table.Render()
	}
	return nil
}
