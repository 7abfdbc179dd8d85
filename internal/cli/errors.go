package cli

import (
	"errors"
	"fmt"

	"github.com/hooklog/hooklog/internal/output"
)

// Process exit codes: the only externally observable contract of receive.
// Callers distinguish a bad payload (ExitRejected, stderr contains
// "validation failed") from a receiver-side fault (ExitFailed).
const (
	ExitAccepted = 0
	ExitRejected = 1
	ExitFailed   = 2
)

// ExitError carries a specific process exit code up to main.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// ExitCode extracts the exit code from err; plain errors map to ExitFailed.
func ExitCode(err error) int {
	if err == nil {
		return ExitAccepted
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitFailed
}

// outputErrorCommon normalizes error emission across commands, respecting
// ndjson vs text formats so machine callers always get structured failures.
func outputErrorCommon(globals *Globals, code, message string, hint ...string) error {
	if globals != nil && globals.Format == "ndjson" {
		output.NewNDJSONWriter(globals.Stdout).WriteError(code, message, hint...)
	} else if globals != nil {
		fmt.Fprintf(globals.Stderr, "Error [%s]: %s", code, message)
		if len(hint) > 0 && hint[0] != "" {
			fmt.Fprintf(globals.Stderr, " (hint: %s)", hint[0])
		}
		fmt.Fprintln(globals.Stderr)
	}
	return errors.New(message)
}
