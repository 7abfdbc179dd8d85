package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hooklog/hooklog/internal/filter"
	"github.com/hooklog/hooklog/internal/logstore"
	"github.com/hooklog/hooklog/internal/tui"
)

// UICmd launches an interactive live view of the event log
type UICmd struct {
	Where     []string `short:"w" help:"Filter records (e.g. 'event=Stop') - can be repeated"`
	FromStart bool     `help:"Replay existing records before following"`
}

// Run executes the UI command
func (c *UICmd) Run(globals *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	where, err := filter.NewWhereFilter(c.Where)
	if err != nil {
		return fmt.Errorf("invalid where clause: %w", err)
	}

	dir := globals.Config.EventsDir()
	globals.Debug("Following event log at %s", dir)
	tail, err := logstore.NewTail(dir, c.FromStart)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer tail.Close()

	model := tui.New(dir, tail, where)
	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
