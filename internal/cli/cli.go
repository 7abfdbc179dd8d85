// Package cli wires the receiver's commands together. The receive command is
// the invocation adapter: one process execution handles exactly one event and
// reports its outcome through the exit code.
package cli

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/hooklog/hooklog/internal/config"
)

// Version information, set at build time via ldflags
var (
	Version = "dev"
	Commit  = "none"
)

// CLI is the top-level command structure
type CLI struct {
	Format      string           `help:"Output format (ndjson, text)" short:"f"`
	Quiet       bool             `help:"Suppress non-essential output" short:"q"`
	Verbose     bool             `help:"Enable verbose debug logging" short:"v"`
	DataDir     string           `help:"Override the data directory (default ~/.hooklog)" type:"path"`
	VersionFlag kong.VersionFlag `name:"version" short:"V" help:"Show version and exit"`

	Receive    ReceiveCmd    `cmd:"" default:"withargs" help:"Read one event from stdin, validate and append it to the log"`
	Import     ImportCmd     `cmd:"" help:"Bulk-replay NDJSON events from a file through the pipeline"`
	Verify     VerifyCmd     `cmd:"" help:"Check segment ordering, record integrity and size bounds"`
	Stats      StatsCmd      `cmd:"" help:"Summarize the event log"`
	Sessions   SessionsCmd   `cmd:"" help:"List known sessions and their states"`
	Prune      PruneCmd      `cmd:"" help:"Delete old sealed segments (never the active one)"`
	Watch      WatchCmd      `cmd:"" help:"Follow the log and run commands when events match"`
	UI         UICmd         `cmd:"" name:"ui" help:"Interactive live view of the event log"`
	Schema     SchemaCmd     `cmd:"" help:"Output JSON Schema for NDJSON output types"`
	Config     ConfigCmd     `cmd:"" help:"Manage configuration"`
	Completion CompletionCmd `cmd:"" help:"Generate shell completions"`
	Update     UpdateCmd     `cmd:"" help:"Show how to upgrade hooklog"`
	VersionCmd VersionCmd    `cmd:"" name:"version" help:"Show version information"`
}

// Globals carries shared flags, streams and config into every command.
type Globals struct {
	Format  string
	Quiet   bool
	Verbose bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Config *config.Config

	logger *debugLogger
}

// NewGlobalsWithConfig merges CLI flags over config values. Flags win; an
// unset format falls back to config, then to a TTY check so humans get text
// and pipelines get NDJSON.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	if c.DataDir != "" {
		cfg.DataDir = c.DataDir
	}
	g := &Globals{
		Format:  c.Format,
		Quiet:   c.Quiet || cfg.Quiet,
		Verbose: c.Verbose || cfg.Verbose,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}
	if g.Format == "" {
		g.Format = cfg.Format
	}
	if g.Format == "" {
		if isatty.IsTerminal(os.Stdout.Fd()) {
			g.Format = "text"
		} else {
			g.Format = "ndjson"
		}
	}
	g.logger = newDebugLogger(g)
	return g
}

// Debug logs a verbose diagnostic line; a no-op unless --verbose is set.
func (g *Globals) Debug(format string, args ...interface{}) {
	if g.logger == nil {
		return
	}
	g.logger.Debug(format, args...)
}
