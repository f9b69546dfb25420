package application

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/a-h/templ"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/jsonkv/internal/core"
	"github.com/JonMunkholm/jsonkv/internal/format"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

// backLabel marks the item that returns to the parent menu.
const backLabel = "Back"

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == backLabel {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

// BuildMenu turns rendered panels into a menu tree: one entry per panel,
// each opening a submenu of its label/value rows.
func BuildMenu(title string, panels []core.Panel) *Menu {
	root := &Menu{Title: title}
	for _, p := range panels {
		root.Items = append(root.Items, MenuItem{
			Label:   p.Label + " ->",
			Submenu: panelMenu(p),
		})
	}

	linkParents(root, nil)

	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

func panelMenu(p core.Panel) *Menu {
	menu := &Menu{Title: p.Label}

	switch p.Kind {
	case core.PanelKeyValue:
		p.Values.Range(func(label string, v any) bool {
			text := ValueText(v)
			menu.Items = append(menu.Items, MenuItem{
				Label:  label + ": " + firstLine(text),
				Action: statusCmd(label + ": " + text),
			})
			return true
		})
	case core.PanelFailed:
		menu.Items = append(menu.Items, MenuItem{Label: "Error: " + core.FormatUserError(p.Err)})
	default:
		menu.Items = append(menu.Items, MenuItem{Label: p.Text})
	}

	menu.Items = append(menu.Items, MenuItem{Label: backLabel})
	return menu
}

func statusCmd(text string) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg { return StatusMsg(text) }
	}
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// ValueText is the terminal form of a display value. HTML values such as
// badges and links are reduced to their text.
func ValueText(v any) string {
	if c, ok := v.(templ.Component); ok {
		rendered, err := format.Render(context.Background(), c)
		if err != nil {
			return fmt.Sprintf("<%v>", err)
		}
		return html.UnescapeString(tagPattern.ReplaceAllString(fmt.Sprint(rendered), ""))
	}

	switch s := core.DisplayValue(v).(type) {
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func firstLine(s string) string {
	line, _, found := strings.Cut(s, "\n")
	if found {
		return line + " …"
	}
	return line
}
