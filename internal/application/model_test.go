package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/a-h/templ"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/jsonkv/internal/core"
)

func samplePanels() []core.Panel {
	values := core.NewObject()
	values.Set("Name", "Ada")
	values.Set("Notes", "line one\nline two")
	values.Set("Status", templ.Raw(`<span class="badge badge-green">Paid &amp; closed</span>`))

	return []core.Panel{
		{Label: "Order #1", Kind: core.PanelKeyValue, Values: values},
		{Label: "Order #2", Kind: core.PanelFailed, Err: &core.FormatterError{Key: "total", Err: errors.New("boom")}},
		{Label: "Notes", Kind: core.PanelText, Text: "No Notes available"},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
	}
	return m, cmd
}

func TestBuildMenu(t *testing.T) {
	root := BuildMenu("Orders", samplePanels())

	require.Len(t, root.Items, 3)
	assert.Equal(t, "Order #1 ->", root.Items[0].Label)

	detail := root.Items[0].Submenu
	require.NotNil(t, detail)
	assert.Equal(t, root, detail.Parent)
	require.Len(t, detail.Items, 4)
	assert.Equal(t, "Name: Ada", detail.Items[0].Label)
	assert.Equal(t, "Notes: line one …", detail.Items[1].Label)
	assert.Equal(t, "Status: Paid & closed", detail.Items[2].Label)
	assert.Equal(t, backLabel, detail.Items[3].Label)
	assert.Equal(t, root, detail.Items[3].Submenu)

	failed := root.Items[1].Submenu
	assert.Contains(t, failed.Items[0].Label, "FMT001")

	text := root.Items[2].Submenu
	assert.Equal(t, "No Notes available", text.Items[0].Label)
}

func TestValueText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "plain", "plain"},
		{"nil", nil, core.MissingValue},
		{"component", templ.Raw(`<a href="x">View &gt;</a>`), "View >"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValueText(tt.in); got != tt.want {
				t.Errorf("ValueText(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestModel_Navigation(t *testing.T) {
	m := NewModel(context.Background(), "Orders", samplePanels(), nil)

	m, _ = press(t, m, "enter")
	assert.Equal(t, "Order #1", m.menu.Title)
	assert.Contains(t, m.View(), "Orders / Order #1")

	m, cmd := press(t, m, "down", "enter")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Contains(t, m.View(), "Notes: line one\nline two")

	m, _ = press(t, m, "esc")
	assert.Equal(t, "Orders", m.menu.Title)
	assert.Equal(t, 0, m.cursor)
}

func TestModel_BackItem(t *testing.T) {
	m := NewModel(context.Background(), "Orders", samplePanels(), nil)

	m, _ = press(t, m, "down", "down", "enter", "down", "enter")
	assert.Equal(t, "Orders", m.menu.Title)
}

func TestModel_CursorBounds(t *testing.T) {
	m := NewModel(context.Background(), "Orders", samplePanels(), nil)

	m, _ = press(t, m, "up")
	assert.Equal(t, 0, m.cursor)

	m, _ = press(t, m, "down", "down", "down", "down")
	assert.Equal(t, 2, m.cursor)
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(context.Background(), "Orders", nil, nil)

	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_Reload(t *testing.T) {
	calls := 0
	load := func(context.Context) ([]core.Panel, error) {
		calls++
		return samplePanels()[:1], nil
	}
	m := NewModel(context.Background(), "Orders", samplePanels(), load)

	m, cmd := press(t, m, "enter", "r")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "Orders", m.menu.Title)
	assert.Len(t, m.menu.Items, 1)
	assert.Contains(t, m.View(), "Reloaded 1 panels")
}

func TestModel_ReloadError(t *testing.T) {
	load := func(context.Context) ([]core.Panel, error) {
		return nil, &core.MalformedInputError{Err: errors.New("bad")}
	}
	m := NewModel(context.Background(), "Orders", nil, load)

	m, cmd := press(t, m, "r")
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Contains(t, m.View(), "IN001")
}

func TestModel_Empty(t *testing.T) {
	m := NewModel(context.Background(), "Orders", nil, nil)

	m, cmd := press(t, m, "enter", "r")
	assert.Nil(t, cmd)
	assert.True(t, strings.Contains(m.View(), "Nothing to display"))
}
