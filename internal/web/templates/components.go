// Package templates holds the HTML components served by the web layer.
//
// Components are generated from components.templ so handlers can render a
// full page or, for HTMX requests, a single fragment. Run templ generate
// after editing the .templ source.
package templates

//go:generate templ generate

import (
	"fmt"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/jsonkv/internal/core"
)

// PanelLink is one entry on the index page.
type PanelLink struct {
	Name        string
	Field       string
	Description string
	HasSource   bool
}

// field is one row of a key/value panel. Component is set for values a
// formatter rendered as HTML; Text holds everything else.
type field struct {
	Key       string
	Component templ.Component
	Text      string
}

func fields(values *core.Object) []field {
	if values == nil {
		return nil
	}
	out := make([]field, 0, values.Len())
	values.Range(func(k string, v any) bool {
		f := field{Key: k}
		if c, ok := v.(templ.Component); ok {
			f.Component = c
		} else {
			f.Text = displayText(v)
		}
		out = append(out, f)
		return true
	})
	return out
}

func displayText(v any) string {
	switch val := core.DisplayValue(v).(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
