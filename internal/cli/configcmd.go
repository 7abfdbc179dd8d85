package cli

import (
	"encoding/json"
	"fmt"

	"github.com/hooklog/hooklog/internal/config"
)

// ConfigCmd groups configuration subcommands
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"1" help:"Show the effective configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show which config file is in use"`
	Generate ConfigGenerateCmd `cmd:"" help:"Print a sample configuration file"`
}

// ConfigShowCmd shows the effective configuration
type ConfigShowCmd struct{}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if globals.Format == "ndjson" {
		out := map[string]interface{}{
			"type":     "config",
			"format":   cfg.Format,
			"quiet":    cfg.Quiet,
			"verbose":  cfg.Verbose,
			"disabled": cfg.Disabled,
			"data_dir": cfg.DataDir,
			"log": map[string]interface{}{
				"max_segment_size":    cfg.Log.MaxSegmentSize,
				"max_payload_size":    cfg.Log.MaxPayloadSize,
				"max_session_id":      cfg.Log.MaxSessionID,
				"flush":               cfg.Log.Flush,
				"compress_sealed":     cfg.Log.CompressSealed,
				"max_sealed_segments": cfg.Log.MaxSealedSegments,
			},
		}
		return json.NewEncoder(globals.Stdout).Encode(out)
	}

	fmt.Fprintln(globals.Stdout, "Current Configuration:")
	fmt.Fprintf(globals.Stdout, "  format: %s\n", cfg.Format)
	fmt.Fprintf(globals.Stdout, "  quiet: %v\n", cfg.Quiet)
	fmt.Fprintf(globals.Stdout, "  verbose: %v\n", cfg.Verbose)
	fmt.Fprintf(globals.Stdout, "  disabled: %v\n", cfg.Disabled)
	fmt.Fprintf(globals.Stdout, "  data_dir: %s\n", cfg.DataDir)
	fmt.Fprintln(globals.Stdout)
	fmt.Fprintln(globals.Stdout, "Log:")
	fmt.Fprintf(globals.Stdout, "  max_segment_size: %d\n", cfg.Log.MaxSegmentSize)
	fmt.Fprintf(globals.Stdout, "  max_payload_size: %d\n", cfg.Log.MaxPayloadSize)
	fmt.Fprintf(globals.Stdout, "  max_session_id: %d\n", cfg.Log.MaxSessionID)
	fmt.Fprintf(globals.Stdout, "  flush: %s\n", cfg.Log.Flush)
	fmt.Fprintf(globals.Stdout, "  compress_sealed: %v\n", cfg.Log.CompressSealed)
	fmt.Fprintf(globals.Stdout, "  max_sealed_segments: %d\n", cfg.Log.MaxSealedSegments)
	return nil
}

// ConfigPathCmd shows which config file is in use
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := config.ConfigFile()

	if globals.Format == "ndjson" {
		return json.NewEncoder(globals.Stdout).Encode(map[string]interface{}{
			"type":  "config_path",
			"path":  path,
			"found": path != "",
		})
	}

	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found (using defaults)")
		fmt.Fprintln(globals.Stdout)
		fmt.Fprintln(globals.Stdout, "Searched locations:")
		fmt.Fprintln(globals.Stdout, "  /etc/hooklog/hooklog.yaml")
		fmt.Fprintln(globals.Stdout, "  $XDG_CONFIG_HOME/hooklog/hooklog.yaml")
		fmt.Fprintln(globals.Stdout, "  ~/.hooklog.yaml")
		fmt.Fprintln(globals.Stdout, "  ./hooklog.yaml")
	} else {
		fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	}
	return nil
}

// ConfigGenerateCmd prints a sample configuration file
type ConfigGenerateCmd struct{}

// Run executes the config generate command
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	sample := `# hooklog configuration file
# Place at ~/.hooklog.yaml or $XDG_CONFIG_HOME/hooklog/hooklog.yaml

# Output format: ndjson (machine-readable) or text (human-readable)
format: ndjson

# Suppress non-essential output
quiet: false

# Enable verbose debug logging
verbose: false

# Kill switch: when true, receive accepts and drops every event
# (also settable via HOOKLOG_DISABLED=1)
disabled: false

# Root directory for the event log and session state (default ~/.hooklog)
# data_dir: /var/lib/hooklog

log:
  # Active segment seals before exceeding this many bytes
  max_segment_size: 10485760

  # Payloads larger than this are rejected, never truncated
  max_payload_size: 524288

  # Session id length ceiling in bytes
  max_session_id: 256

  # Durability: per-record (flush every append) or buffered (flush on close)
  flush: per-record

  # Gzip sealed segments
  compress_sealed: false

  # 'hooklog prune' keeps this many sealed segments by default
  max_sealed_segments: 5
`
	fmt.Fprint(globals.Stdout, sample)
	return nil
}
