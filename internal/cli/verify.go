package cli

import (
	"fmt"

	"github.com/hooklog/hooklog/internal/domain"
	"github.com/hooklog/hooklog/internal/logstore"
	"github.com/hooklog/hooklog/internal/output"
)

// VerifyCmd walks the whole log strictly and checks the invariants the writer
// is supposed to maintain: every line parses, sequence numbers strictly
// increase across segment boundaries, and no sealed segment exceeds the
// configured size bound.
type VerifyCmd struct{}

// Run executes the verify command
func (c *VerifyCmd) Run(globals *Globals) error {
	cfg := globals.Config

	segs, err := logstore.ListSegments(cfg.EventsDir())
	if err != nil {
		return outputErrorCommon(globals, "verify_list_failed", err.Error())
	}

	var problems []string
	var records int
	var lastSeq uint64

	for _, seg := range segs {
		if !seg.Active && !seg.Compressed && seg.Size > cfg.Log.MaxSegmentSize {
			problems = append(problems, fmt.Sprintf(
				"%s: sealed segment is %d bytes, above the %d byte bound",
				seg.Path, seg.Size, cfg.Log.MaxSegmentSize))
		}
		err := logstore.ScanSegment(seg, func(rec *domain.LogRecord) error {
			records++
			if rec.Seq <= lastSeq && lastSeq != 0 {
				problems = append(problems, fmt.Sprintf(
					"%s: seq %d does not follow %d", seg.Path, rec.Seq, lastSeq))
			}
			if rec.Seq > lastSeq {
				lastSeq = rec.Seq
			}
			return nil
		})
		if err != nil {
			problems = append(problems, err.Error())
		}
	}

	if globals.Format == "ndjson" {
		output.NewNDJSONWriter(globals.Stdout).WriteValue(map[string]any{
			"type":          "verify",
			"schemaVersion": output.SchemaVersion,
			"ok":            len(problems) == 0,
			"records":       records,
			"segments":      len(segs),
			"problems":      problems,
		})
	} else {
		if len(problems) == 0 {
			if !globals.Quiet {
				fmt.Fprintf(globals.Stdout, "OK: %d records across %d segments\n", records, len(segs))
			}
		} else {
			for _, p := range problems {
				fmt.Fprintf(globals.Stderr, "Problem: %s\n", p)
			}
		}
	}

	if len(problems) > 0 {
		return &ExitError{Code: ExitFailed, Message: fmt.Sprintf("%d problems found", len(problems))}
	}
	return nil
}
