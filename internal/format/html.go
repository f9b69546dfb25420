package format

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/jsonkv/internal/core"
)

// DefaultBadgeColor is used for values without a configured color.
const DefaultBadgeColor = "gray"

// Badge renders the value as a colored badge. colors maps values to a
// color name used in the "badge-{color}" class.
func Badge(colors map[string]string) core.Formatter {
	return func(v any, _ *core.Object) (any, error) {
		text := toText(v)
		color, ok := colors[text]
		if !ok {
			color = DefaultBadgeColor
		}
		return badge(text, color), nil
	}
}

// URL renders the value as a link opening in a new tab. Empty text means
// "View". Unsafe schemes such as javascript: are neutralized.
func URL(text string) core.Formatter {
	if text == "" {
		text = "View"
	}
	return func(v any, _ *core.Object) (any, error) {
		return link(toText(v), text, true), nil
	}
}

// Email renders the value as a mailto link.
func Email() core.Formatter {
	return func(v any, _ *core.Object) (any, error) {
		addr := toText(v)
		return link("mailto:"+addr, addr, false), nil
	}
}

// Render turns a display value into plain data: templ components are
// rendered to their HTML text, anything else is returned unchanged.
func Render(ctx context.Context, v any) (any, error) {
	c, ok := v.(templ.Component)
	if !ok {
		return v, nil
	}
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return nil, err
	}
	return b.String(), nil
}

// RenderObject applies Render to every value of a record, keeping key order.
func RenderObject(ctx context.Context, values *core.Object) (*core.Object, error) {
	out := core.NewObject()
	var err error
	values.Range(func(k string, v any) bool {
		var rendered any
		rendered, err = Render(ctx, v)
		if err != nil {
			return false
		}
		out.Set(k, rendered)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
