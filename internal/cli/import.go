package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/benbjohnson/clock"

	"github.com/hooklog/hooklog/internal/logstore"
	"github.com/hooklog/hooklog/internal/output"
	"github.com/hooklog/hooklog/internal/processor"
	"github.com/hooklog/hooklog/internal/session"
	"github.com/hooklog/hooklog/internal/validate"
)

// ImportCmd replays NDJSON events through the same validate/append pipeline
// as receive, one event per line. Uses buffered flushing since durability per
// record matters less for bulk replay than throughput.
type ImportCmd struct {
	File       string `arg:"" optional:"" help:"NDJSON file to import (default stdin)" type:"path"`
	NoSessions bool   `help:"Skip per-session state upkeep"`
}

// Run executes the import command
func (c *ImportCmd) Run(globals *Globals) error {
	cfg := globals.Config

	if err := validateFlags(globals); err != nil {
		return err
	}

	var in io.Reader = globals.Stdin
	if c.File != "" && c.File != "-" {
		f, err := os.Open(c.File)
		if err != nil {
			return outputErrorCommon(globals, "import_open_failed", err.Error(),
				"check that the file exists and is readable")
		}
		defer f.Close()
		in = f
	}

	store, err := logstore.Open(cfg.EventsDir(), logstore.Options{
		MaxSegmentSize: cfg.Log.MaxSegmentSize,
		Flush:          logstore.FlushBuffered,
		CompressSealed: cfg.Log.CompressSealed,
	})
	if err != nil {
		return outputErrorCommon(globals, "log_open_failed", err.Error())
	}
	defer store.Close()

	var sessions *session.Store
	if !c.NoSessions {
		sessions = session.NewStore(cfg.SessionsDir(), clock.New())
	}

	v := validate.New(validate.Limits{
		MaxPayloadBytes:   cfg.Log.MaxPayloadSize,
		MaxSessionIDBytes: cfg.Log.MaxSessionID,
	})
	p := processor.New(v, store, sessions, clock.New())

	var accepted, rejected, failed int
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64<<10), 4<<20)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		out := p.Process(raw)
		switch out.Kind {
		case processor.Accepted:
			accepted++
		case processor.Rejected:
			rejected++
			globals.Debug("line %d rejected: %v", line, out.Err)
		default:
			failed++
			fmt.Fprintf(globals.Stderr, "line %d: %v\n", line, out.Err)
		}
	}
	if err := sc.Err(); err != nil {
		return outputErrorCommon(globals, "import_read_failed", err.Error())
	}
	if err := store.Close(); err != nil {
		return outputErrorCommon(globals, "log_close_failed", err.Error())
	}

	if globals.Format == "ndjson" {
		output.NewNDJSONWriter(globals.Stdout).WriteValue(map[string]any{
			"type":          "import_summary",
			"schemaVersion": output.SchemaVersion,
			"accepted":      accepted,
			"rejected":      rejected,
			"failed":        failed,
		})
	} else if !globals.Quiet {
		fmt.Fprintf(globals.Stdout, "Imported %d events (%d rejected, %d failed)\n",
			accepted, rejected, failed)
	}

	if failed > 0 {
		return &ExitError{Code: ExitFailed, Message: fmt.Sprintf("%d events failed", failed)}
	}
	return nil
}
