package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hooklog/hooklog/internal/domain"
	"github.com/hooklog/hooklog/internal/filter"
	"github.com/hooklog/hooklog/internal/logstore"
	"github.com/hooklog/hooklog/internal/output"
	"github.com/hooklog/hooklog/internal/tmux"
)

// WatchCmd follows the event log and optionally triggers commands when
// matching records arrive. It is a read-side consumer: the receive path never
// waits for it.
type WatchCmd struct {
	Where     []string `short:"w" help:"Filter records (e.g. 'event=Stop', 'session~^abc') - can be repeated"`
	Pattern   string   `short:"p" help:"Regex applied to the rendered record line"`
	Exclude   string   `short:"x" help:"Regex excluding rendered record lines"`
	OnEvent   []string `help:"EventType:command pairs (e.g. 'SessionEnd:notify.sh') - can be repeated"`
	Cooldown  string   `default:"5s" help:"Minimum time between trigger executions"`
	FromStart bool     `help:"Replay existing records before following"`
	Interval  string   `default:"500ms" help:"Poll interval"`
	Tmux      bool     `help:"Output to tmux session"`
	Session   string   `help:"Custom tmux session name (default: hooklog-<dir>)"`
}

// triggerConfig holds one parsed event trigger
type triggerConfig struct {
	event   domain.EventType
	command string
}

// Run executes the watch command
func (c *WatchCmd) Run(globals *Globals) error {
	if err := validateFlags(globals); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cooldown, err := time.ParseDuration(c.Cooldown)
	if err != nil {
		return outputErrorCommon(globals, "invalid_cooldown", fmt.Sprintf("invalid cooldown duration: %s", err))
	}
	interval, err := time.ParseDuration(c.Interval)
	if err != nil {
		return outputErrorCommon(globals, "invalid_interval", fmt.Sprintf("invalid poll interval: %s", err))
	}

	where, err := filter.NewWhereFilter(c.Where)
	if err != nil {
		return outputErrorCommon(globals, "invalid_where", err.Error())
	}

	var triggers []triggerConfig
	for _, pt := range c.OnEvent {
		parts := strings.SplitN(pt, ":", 2)
		if len(parts) != 2 {
			return outputErrorCommon(globals, "invalid_trigger", fmt.Sprintf("invalid EventType:command format: %s", pt))
		}
		et := domain.EventType(parts[0])
		if !et.Known() {
			return outputErrorCommon(globals, "invalid_trigger_event", fmt.Sprintf("unknown event type: %s", parts[0]),
				"run 'hooklog schema' for the list of event types")
		}
		triggers = append(triggers, triggerConfig{event: et, command: parts[1]})
	}

	var pattern, exclude *regexp.Regexp
	if c.Pattern != "" {
		if pattern, err = regexp.Compile(c.Pattern); err != nil {
			return outputErrorCommon(globals, "invalid_pattern", fmt.Sprintf("invalid regex pattern: %s", err))
		}
	}
	if c.Exclude != "" {
		if exclude, err = regexp.Compile(c.Exclude); err != nil {
			return outputErrorCommon(globals, "invalid_exclude_pattern", fmt.Sprintf("invalid exclude pattern: %s", err))
		}
	}

	dir := globals.Config.EventsDir()
	tail, err := logstore.NewTail(dir, c.FromStart)
	if err != nil {
		return outputErrorCommon(globals, "tail_open_failed", err.Error())
	}
	defer tail.Close()

	// Determine output destination
	var outputWriter io.Writer = globals.Stdout
	var tmuxMgr *tmux.Manager

	if c.Tmux {
		sessionName := c.Session
		if sessionName == "" {
			sessionName = tmux.GenerateSessionName(dir)
		}
		if tmux.IsTmuxAvailable() {
			tmuxMgr, err = tmux.NewManager(&tmux.Config{SessionName: sessionName, Detached: true})
			if err == nil {
				if err := tmuxMgr.GetOrCreateSession(); err == nil {
					outputWriter = tmux.NewWriter(tmuxMgr)
					tmuxMgr.ClearPaneWithBanner(fmt.Sprintf("Watching: %s", dir))

					if globals.Format == "ndjson" {
						output.NewNDJSONWriter(globals.Stdout).WriteValue(map[string]any{
							"type":    "tmux",
							"session": sessionName,
							"attach":  tmuxMgr.AttachCommand(),
						})
					} else {
						fmt.Fprintf(globals.Stdout, "Tmux session: %s\n", sessionName)
						fmt.Fprintf(globals.Stdout, "Attach with: %s\n", tmuxMgr.AttachCommand())
					}
				}
			}
		}
	}
	if tmuxMgr != nil {
		defer tmuxMgr.Cleanup()
	}

	if !globals.Quiet && tmuxMgr == nil && globals.Format != "ndjson" {
		fmt.Fprintf(globals.Stderr, "Watching %s\n", dir)
		for _, t := range triggers {
			fmt.Fprintf(globals.Stderr, "On %s: %s\n", t.event, t.command)
		}
		fmt.Fprintln(globals.Stderr, "Press Ctrl+C to stop")
	}

	var writer interface {
		WriteRecord(rec *domain.LogRecord) error
	}
	if globals.Format == "ndjson" {
		writer = output.NewNDJSONWriter(outputWriter)
	} else {
		writer = output.NewTextWriter(outputWriter)
	}

	lastTriggers := make(map[int]time.Time)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			recs, err := tail.Poll()
			if err != nil && !globals.Quiet {
				fmt.Fprintf(globals.Stderr, "Warning: %s\n", err.Error())
			}
			for _, rec := range recs {
				if !where.Match(rec) {
					continue
				}
				line := renderLine(rec)
				if pattern != nil && !pattern.MatchString(line) {
					continue
				}
				if exclude != nil && exclude.MatchString(line) {
					continue
				}

				if err := writer.WriteRecord(rec); err != nil {
					return err
				}

				now := time.Now()
				for i, t := range triggers {
					if rec.EventType() != t.event {
						continue
					}
					if now.Sub(lastTriggers[i]) >= cooldown {
						c.runTrigger(globals, t.command, rec)
						lastTriggers[i] = now
					}
				}
			}
		}
	}
}

// renderLine is the text the pattern/exclude regexes match against.
func renderLine(rec *domain.LogRecord) string {
	var b strings.Builder
	b.WriteString(rec.HookEventName)
	b.WriteString(" ")
	b.WriteString(rec.SessionID)
	for k, v := range rec.Data {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		fmt.Fprintf(&b, "%v", v)
	}
	return b.String()
}

// runTrigger executes a trigger command in the background with record context
// in the environment, so a slow hook never stalls the feed.
func (c *WatchCmd) runTrigger(globals *Globals, command string, rec *domain.LogRecord) {
	if globals.Format == "ndjson" {
		output.NewNDJSONWriter(globals.Stdout).WriteValue(map[string]any{
			"type":    "trigger",
			"event":   rec.HookEventName,
			"command": command,
			"seq":     rec.Seq,
		})
	} else if !globals.Quiet {
		fmt.Fprintf(globals.Stderr, "[TRIGGER:%s] Running: %s\n", rec.HookEventName, command)
	}

	cmd := exec.Command("sh", "-c", command)
	cmd.Env = append(os.Environ(),
		"HOOKLOG_EVENT="+rec.HookEventName,
		"HOOKLOG_SESSION="+rec.SessionID,
		"HOOKLOG_SEQ="+strconv.FormatUint(rec.Seq, 10),
		"HOOKLOG_RECEIVED_AT="+rec.ReceivedAt,
	)
	go func() {
		if err := cmd.Run(); err != nil {
			if globals.Format == "ndjson" {
				output.NewNDJSONWriter(globals.Stdout).WriteValue(map[string]any{
					"type":    "trigger_error",
					"command": command,
					"error":   err.Error(),
				})
			} else if !globals.Quiet {
				fmt.Fprintf(globals.Stderr, "[TRIGGER ERROR] %s: %s\n", command, err.Error())
			}
		}
	}()
}
