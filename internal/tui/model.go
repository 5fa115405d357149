// Package tui is the interactive terminal dashboard built on bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alanyoungcy/marketfocus/internal/config"
	"github.com/alanyoungcy/marketfocus/internal/domain"
	"github.com/alanyoungcy/marketfocus/internal/report"
)

// Snapshotter returns dashboard snapshots.
type Snapshotter interface {
	Snapshot(ctx context.Context, maxHours float64, refresh bool) (*domain.Snapshot, error)
}

var (
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	busyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

const helpText = "r refresh · +/- window · v valid prices · d details · q quit"

// snapshotMsg carries the result of one fetch back into Update.
type snapshotMsg struct {
	maxHours float64
	snap     *domain.Snapshot
	err      error
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx  context.Context
	dash Snapshotter

	maxHours  float64
	validOnly bool
	details   bool

	snap    *domain.Snapshot
	err     error
	loading bool
	width   int
}

// NewModel creates a Model starting at maxHours.
func NewModel(ctx context.Context, dash Snapshotter, maxHours float64) Model {
	return Model{ctx: ctx, dash: dash, maxHours: maxHours, loading: true}
}

// Init loads the first snapshot.
func (m Model) Init() tea.Cmd {
	return m.fetch(false)
}

func (m Model) fetch(refresh bool) tea.Cmd {
	ctx, dash, hours := m.ctx, m.dash, m.maxHours
	return func() tea.Msg {
		snap, err := dash.Snapshot(ctx, hours, refresh)
		return snapshotMsg{maxHours: hours, snap: snap, err: err}
	}
}

// Update handles key presses and fetch results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.fetch(true)
		case "+", "=":
			return m.adjustHours(config.MaxHoursStep)
		case "-", "_":
			return m.adjustHours(-config.MaxHoursStep)
		case "v":
			m.validOnly = !m.validOnly
		case "d":
			m.details = !m.details
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case snapshotMsg:
		// Drop results for a window the user has already moved away from.
		if msg.maxHours != m.maxHours {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
		}
		return m, nil
	}
	return m, nil
}

func (m Model) adjustHours(delta float64) (tea.Model, tea.Cmd) {
	next := min(max(m.maxHours+delta, config.MinMaxHours), config.MaxMaxHours)
	if next == m.maxHours {
		return m, nil
	}
	m.maxHours = next
	m.loading = true
	return m, m.fetch(false)
}

// View renders the current state.
func (m Model) View() string {
	var b strings.Builder
	switch {
	case m.err != nil:
		b.WriteString(report.RenderError(m.err))
	case m.snap == nil:
		b.WriteString(busyStyle.Render(fmt.Sprintf("Loading markets closing within %gh…", m.maxHours)))
		b.WriteString("\n")
	default:
		b.WriteString(report.Render(m.snap, report.Options{
			ValidPricesOnly: m.validOnly,
			ShowDetails:     m.details,
		}))
	}

	status := fmt.Sprintf("window %gh", m.maxHours)
	if m.validOnly {
		status += " · valid prices only"
	}
	if m.loading && m.snap != nil {
		status += " · " + busyStyle.Render("refreshing…")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(status + " · " + helpText))
	return b.String()
}

// MaxHours returns the current window.
func (m Model) MaxHours() float64 { return m.maxHours }

// Run starts the dashboard and blocks until the user quits or ctx ends.
func Run(ctx context.Context, dash Snapshotter, maxHours float64) error {
	p := tea.NewProgram(NewModel(ctx, dash, maxHours), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: run: %w", err)
	}
	return nil
}
