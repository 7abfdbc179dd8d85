// Package tui is a small live viewer over the event log: it polls the
// active segment and renders the most recent records.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hooklog/hooklog/internal/domain"
	"github.com/hooklog/hooklog/internal/filter"
	"github.com/hooklog/hooklog/internal/logstore"
)

const pollInterval = 500 * time.Millisecond

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	seqStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	eventStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	sessionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("108"))
	waitStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	endStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

type tickMsg time.Time

type pollMsg struct {
	records []*domain.LogRecord
	err     error
}

// Model is the bubbletea model for the live event viewer.
type Model struct {
	dir     string
	tail    *logstore.Tail
	where   *filter.WhereFilter
	spinner spinner.Model
	records []*domain.LogRecord
	total   int
	maxRows int
	width   int
	height  int
	err     error
	paused  bool
}

// New creates a viewer over the log at dir. where may be nil.
func New(dir string, tail *logstore.Tail, where *filter.WhereFilter) Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return Model{
		dir:     dir,
		tail:    tail,
		where:   where,
		spinner: sp,
		maxRows: 500,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "p", " ":
			m.paused = !m.paused
			return m, nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if m.paused {
			return m, tick()
		}
		tail := m.tail
		where := m.where
		return m, tea.Batch(tick(), func() tea.Msg {
			recs, err := tail.Poll()
			if where != nil {
				kept := recs[:0]
				for _, r := range recs {
					if where.Match(r) {
						kept = append(kept, r)
					}
				}
				recs = kept
			}
			return pollMsg{records: recs, err: err}
		})

	case pollMsg:
		m.err = msg.err
		m.total += len(msg.records)
		m.records = append(m.records, msg.records...)
		if n := len(m.records); n > m.maxRows {
			m.records = m.records[n-m.maxRows:]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	status := m.spinner.View() + " following"
	if m.paused {
		status = "⏸ paused"
	}
	b.WriteString(titleStyle.Render("hooklog") + "  " + m.dir + "  " + status)
	b.WriteString(seqStyle.Render(fmt.Sprintf("  (%d records)", m.total)))
	b.WriteString("\n\n")

	rows := m.visibleRows()
	start := 0
	if len(m.records) > rows {
		start = len(m.records) - rows
	}
	for _, rec := range m.records[start:] {
		b.WriteString(m.renderRecord(rec))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n" + endStyle.Render("error: "+m.err.Error()) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("p: pause  q: quit"))
	return b.String()
}

func (m Model) visibleRows() int {
	if m.height <= 6 {
		return 20
	}
	return m.height - 6
}

func (m Model) renderRecord(rec *domain.LogRecord) string {
	style := eventStyle
	switch rec.EventType().SessionState() {
	case domain.StateWaiting:
		style = waitStyle
	case domain.StateFinished:
		style = endStyle
	}
	return fmt.Sprintf("%s %s %s",
		seqStyle.Render(fmt.Sprintf("#%-6d", rec.Seq)),
		style.Render(fmt.Sprintf("%-17s", rec.HookEventName)),
		sessionStyle.Render(rec.SessionID),
	)
}
