package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/hooklog/hooklog/internal/output"
	"github.com/hooklog/hooklog/internal/session"
)

// SessionsCmd lists known sessions and the state derived from their last
// accepted event.
type SessionsCmd struct {
	State string `help:"Only show sessions in this state (working, waiting, finished)"`
}

// Run executes the sessions command
func (c *SessionsCmd) Run(globals *Globals) error {
	recs, err := session.NewStore(globals.Config.SessionsDir(), nil).List()
	if err != nil {
		return outputErrorCommon(globals, "sessions_list_failed", err.Error())
	}

	if c.State != "" {
		recs = lo.Filter(recs, func(r *session.Record, _ int) bool {
			return r.State == c.State
		})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].UpdatedAt > recs[j].UpdatedAt })

	if globals.Format == "ndjson" {
		w := output.NewNDJSONWriter(globals.Stdout)
		for _, r := range recs {
			if err := w.WriteValue(r); err != nil {
				return err
			}
		}
		return nil
	}

	if len(recs) == 0 {
		if !globals.Quiet {
			fmt.Fprintln(globals.Stdout, "No sessions found")
		}
		return nil
	}

	table := tablewriter.NewTable(globals.Stdout)
	table.Header("Session", "State", "Events", "Last Event", "Updated")
	for _, r := range recs {
		table.Append([]string{
			r.SessionID,
			r.State,
			fmt.Sprintf("%d", r.EventCount),
			r.LastEvent,
			time.Unix(r.UpdatedAt, 0).Format(time.RFC3339),
		})
	}
	table.Render()
	return nil
}
