// Package tmux mirrors watch output into a tmux session so an agent (or a
// human) can attach to a live event feed without owning the watching
// process's terminal.
package tmux

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/GianlucaP106/gotmux/gotmux"
)

// ErrNoSessionAvailable is returned when writes happen before a session exists.
var ErrNoSessionAvailable = errors.New("no tmux session available")

// Config describes the target session.
type Config struct {
	SessionName string
	Detached    bool
}

// Manager owns one tmux session used as an output sink.
type Manager struct {
	mu      sync.Mutex
	config  *Config
	tmux    *gotmux.Tmux
	session *gotmux.Session
}

// NewManager connects to the default tmux server.
func NewManager(cfg *Config) (*Manager, error) {
	t, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to tmux: %w", err)
	}
	return &Manager{config: cfg, tmux: t}, nil
}

// IsTmuxAvailable reports whether a tmux binary is on PATH.
func IsTmuxAvailable() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// GenerateSessionName derives a session name from the log directory.
func GenerateSessionName(dir string) string {
	base := dir
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	if base == "" {
		base = "events"
	}
	return "hooklog-" + base
}

// GetOrCreateSession makes sure the configured session exists.
func (m *Manager) GetOrCreateSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, err := m.tmux.GetSessionByName(m.config.SessionName); err == nil && s != nil {
		m.session = s
		return nil
	}
	s, err := m.tmux.NewSession(&gotmux.SessionOptions{Name: m.config.SessionName})
	if err != nil {
		return fmt.Errorf("failed to create tmux session: %w", err)
	}
	m.session = s
	return nil
}

// AttachCommand returns the command a user runs to attach to the session.
func (m *Manager) AttachCommand() string {
	return "tmux attach -t " + m.config.SessionName
}

// Cleanup flushes nothing and leaves the session alive: the feed is the
// point, killing it on exit would destroy what the user attached for.
func (m *Manager) Cleanup() {}

// Command runs a raw tmux subcommand against the server.
func (m *Manager) Command(args ...string) (string, error) {
	out, err := exec.Command("tmux", args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tmux %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
