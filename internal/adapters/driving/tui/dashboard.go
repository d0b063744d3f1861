// Package tui provides the interactive source dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driving"
)

const pollInterval = 500 * time.Millisecond

// Theme is the dashboard colour palette.
type Theme struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Active  lipgloss.Style
	Cursor  lipgloss.Style
}

// defaultTheme returns the default palette.
func defaultTheme() Theme {
	return Theme{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		Active:  lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA")),
		Cursor:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CDD6F4")),
	}
}

// tickMsg drives the poll cycle.
type tickMsg time.Time

// snapshotMsg carries one refreshed view of every source.
type snapshotMsg struct {
	sources []domain.DataSource
	views   map[domain.ActionKey]driving.ProgressView
	err     error
}

// syncTriggeredMsg reports the outcome of a manual sync.
type syncTriggeredMsg struct {
	key domain.ActionKey
	err error
}

// Model is the dashboard's bubbletea model.
type Model struct {
	orch  driving.Orchestrator
	theme Theme
	bar   progress.Model

	sources  []domain.DataSource
	views    map[domain.ActionKey]driving.ProgressView
	selected int
	width    int
	notice   string
	err      error
}

// NewModel creates the dashboard model.
func NewModel(orch driving.Orchestrator) Model {
	return Model{
		orch:  orch,
		theme: defaultTheme(),
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		views: make(map[domain.ActionKey]driving.ProgressView),
	}
}

// Init starts the poll cycle.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.snapshot(), tick())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m, tea.Batch(m.snapshot(), tick())

	case snapshotMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.sources = msg.sources
		m.views = msg.views
		if m.selected >= len(m.sources) {
			m.selected = 0
		}
		return m, nil

	case syncTriggeredMsg:
		m.notice = syncNotice(msg)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.sources)-1 {
			m.selected++
		}
	case "s":
		if m.selected < len(m.sources) {
			key := m.sources[m.selected].Key()
			return m, m.triggerSync(key)
		}
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("datasync sources"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(m.theme.Error.Render(fmt.Sprintf("backend unavailable: %v", m.err)))
		b.WriteString("\n\n")
	}

	if len(m.sources) == 0 {
		b.WriteString(m.theme.Muted.Render("No sources configured."))
		b.WriteString("\n")
	}

	for i := range m.sources {
		b.WriteString(m.renderSource(i))
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.Warning.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("↑/↓ select · s sync · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderSource(i int) string {
	src := &m.sources[i]

	cursor := "  "
	if i == m.selected {
		cursor = m.theme.Cursor.Render("> ")
	}

	line := fmt.Sprintf("%s%-28s %s\n", cursor, src.DisplayName(), m.renderStatus(src))

	view, ok := m.views[src.Key()]
	if !ok || !src.SyncStatus.InFlight() {
		return line
	}

	detail := fmt.Sprintf("    %s %d/%d files  %s elapsed  eta %s\n",
		m.bar.ViewAs(view.Fraction),
		view.Snapshot.FilesProcessed, view.Snapshot.FilesTotal,
		view.Elapsed, view.ETA)
	return line + detail
}

func (m Model) renderStatus(src *domain.DataSource) string {
	switch src.SyncStatus {
	case domain.StatusSynced:
		return m.theme.Success.Render(lastSyncLabel(src.LastSync))
	case domain.StatusSyncing:
		return m.theme.Active.Render("syncing")
	case domain.StatusEmbedding:
		return m.theme.Active.Render("embedding")
	case domain.StatusError:
		return m.theme.Error.Render("error")
	case domain.StatusIncomplete:
		return m.theme.Warning.Render("incomplete")
	case domain.StatusDeleting:
		return m.theme.Warning.Render("deleting")
	default:
		return m.theme.Muted.Render(src.SyncStatus.String())
	}
}

// lastSyncLabel renders "synced" with a relative age when known.
func lastSyncLabel(epoch int64) string {
	if epoch == 0 {
		return "synced"
	}
	age := time.Since(time.Unix(epoch, 0)).Round(time.Minute)
	if age < time.Minute {
		return "synced just now"
	}
	return fmt.Sprintf("synced %s ago", age)
}

// snapshot fetches every source and its progress view off the Update
// loop.
func (m Model) snapshot() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pollInterval)
		defer cancel()

		sources, err := m.orch.Sources(ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}

		views := make(map[domain.ActionKey]driving.ProgressView, len(sources))
		for i := range sources {
			if !sources[i].SyncStatus.InFlight() {
				continue
			}
			view, err := m.orch.Progress(ctx, sources[i].Key())
			if err != nil {
				continue
			}
			views[sources[i].Key()] = *view
		}
		return snapshotMsg{sources: sources, views: views}
	}
}

func (m Model) triggerSync(key domain.ActionKey) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return syncTriggeredMsg{key: key, err: m.orch.TriggerSync(ctx, key)}
	}
}

// syncNotice renders the outcome of a manual sync trigger.
func syncNotice(msg syncTriggeredMsg) string {
	switch {
	case msg.err == nil:
		return fmt.Sprintf("sync started for %s", msg.key)
	case errors.Is(msg.err, domain.ErrReauthRequired):
		return fmt.Sprintf("%s needs re-authorisation; complete the sign-in window", msg.key)
	case errors.Is(msg.err, domain.ErrActionInFlight):
		return fmt.Sprintf("an action for %s is already running", msg.key)
	default:
		return fmt.Sprintf("sync %s failed: %v", msg.key, msg.err)
	}
}

// tick schedules the next poll.
func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the dashboard and blocks until the user quits.
func Run(orch driving.Orchestrator) error {
	program := tea.NewProgram(NewModel(orch), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}
