package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/hooklog/hooklog/internal/logstore"
	"github.com/hooklog/hooklog/internal/output"
	"github.com/hooklog/hooklog/internal/processor"
	"github.com/hooklog/hooklog/internal/session"
	"github.com/hooklog/hooklog/internal/validate"
)

// ReceiveCmd reads exactly one JSON event from stdin and appends it to the
// durable log. Exit code 0: accepted. Exit code 1: rejected, with a
// "validation failed" diagnostic on stderr. Exit code 2: system fault.
type ReceiveCmd struct {
	NoSessions bool `help:"Skip per-session state upkeep"`
}

// Run executes the receive command
func (c *ReceiveCmd) Run(globals *Globals) error {
	start := time.Now()
	cfg := globals.Config

	if err := validateFlags(globals); err != nil {
		return &ExitError{Code: ExitFailed, Message: err.Error()}
	}

	if cfg.Disabled {
		// Kill switch: accept and drop so a misbehaving receiver can be
		// silenced without breaking its callers.
		globals.Debug("kill switch active, dropping event")
		return nil
	}

	raw, err := readPayload(globals.Stdin, cfg.Log.MaxPayloadSize)
	if err != nil {
		fmt.Fprintf(globals.Stderr, "failed to read input: %v\n", err)
		return &ExitError{Code: ExitFailed, Message: err.Error()}
	}

	store, err := logstore.Open(cfg.EventsDir(), logstore.Options{
		MaxSegmentSize: cfg.Log.MaxSegmentSize,
		Flush:          logstore.FlushPolicy(cfg.Log.Flush),
		CompressSealed: cfg.Log.CompressSealed,
	})
	if err != nil {
		fmt.Fprintf(globals.Stderr, "failed to open event log: %v\n", err)
		return &ExitError{Code: ExitFailed, Message: err.Error()}
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

	out := p.Process(raw)
	latency := time.Since(start)

	res := &output.Result{LatencyMs: latency.Milliseconds()}
	if out.Event != nil {
		res.EventType = out.Event.HookEventName
		res.SessionID = out.Event.SessionID
	}

	switch out.Kind {
	case processor.Accepted:
		globals.logger.DebugEvent(res.EventType, res.SessionID,
			"accepted seq=%d payload=%dB latency=%s", out.Seq, len(raw), latency)
		if globals.Format == "ndjson" && !globals.Quiet {
			res.Outcome = "accepted"
			res.Seq = out.Seq
			output.NewNDJSONWriter(globals.Stdout).WriteResult(res)
		}
		return nil

	case processor.Rejected:
		// The stderr line must contain "validation failed"; external
		// tooling matches on that phrase.
		fmt.Fprintln(globals.Stderr, out.Err.Error())
		if globals.Format == "ndjson" && !globals.Quiet {
			res.Outcome = "rejected"
			res.Error = out.Err.Error()
			if kind, ok := validate.KindOf(out.Err); ok {
				res.ErrorKind = string(kind)
			}
			output.NewNDJSONWriter(globals.Stdout).WriteResult(res)
		}
		return &ExitError{Code: ExitRejected, Message: out.Err.Error()}

	default:
		fmt.Fprintf(globals.Stderr, "event processing failed: %v\n", out.Err)
		if globals.Format == "ndjson" && !globals.Quiet {
			res.Outcome = "failed"
			res.Error = out.Err.Error()
			output.NewNDJSONWriter(globals.Stdout).WriteResult(res)
		}
		return &ExitError{Code: ExitFailed, Message: out.Err.Error()}
	}
}

// readPayload reads stdin up to one byte past the payload ceiling, so an
// oversized payload is detected without buffering it whole: the validator
// sees max+1 bytes and rejects on size.
func readPayload(r io.Reader, maxPayload int) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(r, int64(maxPayload)+1))
}
