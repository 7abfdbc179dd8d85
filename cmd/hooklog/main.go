package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/hooklog/hooklog/internal/cli"
	"github.com/hooklog/hooklog/internal/config"
)

const quickStart = `hooklog - durable hook event receiver for AI agents

Quick start:
  some-tool | hooklog receive           Append one JSON event from stdin
  hooklog stats                         Summarize the event log
  hooklog watch --on-event Stop:notify.sh
  hooklog ui                            Interactive live view

For help:
  hooklog --help                        All commands and flags
  hooklog schema                        Machine-readable output schemas
`

func main() {
	// Show quick start on a bare interactive invocation. With piped stdin the
	// default command (receive) still runs, which is how hook callers invoke us.
	if len(os.Args) == 1 && isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	ctx := kong.Parse(&c,
		kong.Name("hooklog"),
		kong.Description("hooklog: validate, sequence and durably log hook events\n\nAI agents: run 'hooklog schema' for machine-readable output documentation"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{"version": fmt.Sprintf("hooklog %s (%s)", cli.Version, cli.Commit)},
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	if err := ctx.Run(globals); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
