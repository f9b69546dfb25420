// Package application is the terminal viewer: a bubbletea program that
// browses rendered panels as a menu tree.
package application

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/jsonkv/internal/core"
)

// StatusMsg sets the status line.
type StatusMsg string

// ErrMsg reports a failed action.
type ErrMsg struct{ Err error }

// ReloadedMsg carries freshly rendered panels.
type ReloadedMsg struct{ Panels []core.Panel }

// Loader renders the panels to show. It is called again on reload.
type Loader func(ctx context.Context) ([]core.Panel, error)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	itemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().PaddingLeft(1).Foreground(lipgloss.Color("214")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const helpText = "↑/↓ move • enter open • esc back • r reload • q quit"

// Model is the bubbletea model of the viewer.
type Model struct {
	ctx    context.Context
	title  string
	load   Loader
	root   *Menu
	menu   *Menu
	cursor int
	width  int
	height int
	status string
	err    error
}

// NewModel builds a viewer over panels. load may be nil, which disables
// reloading.
func NewModel(ctx context.Context, title string, panels []core.Panel, load Loader) Model {
	root := BuildMenu(title, panels)
	return Model{
		ctx:   ctx,
		title: title,
		load:  load,
		root:  root,
		menu:  root,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case StatusMsg:
		m.status, m.err = string(msg), nil
		return m, nil

	case ErrMsg:
		m.status, m.err = "", msg.Err
		return m, nil

	case ReloadedMsg:
		m.root = BuildMenu(m.title, msg.Panels)
		m.menu, m.cursor = m.root, 0
		m.status, m.err = fmt.Sprintf("Reloaded %d panels", len(msg.Panels)), nil
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}

	case "esc", "backspace", "left", "h":
		if m.menu.Parent != nil {
			m.menu, m.cursor = m.menu.Parent, 0
		}

	case "r":
		if m.load != nil {
			m.status = "Reloading..."
			return m, m.reload()
		}

	case "enter", "right", "l":
		return m.selectItem()
	}
	return m, nil
}

func (m Model) selectItem() (tea.Model, tea.Cmd) {
	if len(m.menu.Items) == 0 {
		return m, nil
	}

	item := m.menu.Items[m.cursor]
	switch {
	case item.Submenu != nil:
		m.menu, m.cursor = item.Submenu, 0
		m.status = ""
		return m, nil
	case item.Label == backLabel && m.menu.Parent != nil:
		m.menu, m.cursor = m.menu.Parent, 0
		return m, nil
	case item.Action != nil:
		return m, item.Action()
	}
	return m, nil
}

func (m Model) reload() tea.Cmd {
	load, ctx := m.load, m.ctx
	return func() tea.Msg {
		panels, err := load(ctx)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return ReloadedMsg{Panels: panels}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.breadcrumb()))
	b.WriteString("\n\n")

	if len(m.menu.Items) == 0 {
		b.WriteString(itemStyle.Render("Nothing to display"))
		b.WriteString("\n")
	}

	line := lipgloss.NewStyle()
	if m.width > 0 {
		line = line.MaxWidth(m.width)
	}
	for i, item := range m.menu.Items {
		if i == m.cursor {
			b.WriteString(line.Render(selectedStyle.Render("> " + item.Label)))
		} else {
			b.WriteString(line.Render(itemStyle.Render(item.Label)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + core.FormatUserError(m.err)))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(helpText))

	return b.String()
}

func (m Model) breadcrumb() string {
	var parts []string
	for menu := m.menu; menu != nil; menu = menu.Parent {
		parts = append([]string{menu.Title}, parts...)
	}
	return strings.Join(parts, " / ")
}

// Run starts the viewer and blocks until the user quits or ctx ends.
func Run(ctx context.Context, m Model) error {
	_, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}
