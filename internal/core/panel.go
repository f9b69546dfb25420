package core

// panel.go is the caller-facing adapter. It turns transformation results into
// labelled panels ready for a renderer, applying the options that concern the
// outer list rather than individual fields: single-array collapsing, the
// array size guard, and per-item numbering.

import (
	"context"
	"fmt"
)

// PanelKind tells a renderer how to display a Panel.
type PanelKind string

const (
	// PanelKeyValue holds the label/value pairs of one item.
	PanelKeyValue PanelKind = "keyvalue"

	// PanelText holds a single explanatory message.
	PanelText PanelKind = "text"

	// PanelFailed marks an item whose formatter failed.
	PanelFailed PanelKind = "failed"
)

// Panel is one displayable group.
type Panel struct {
	Label  string
	Kind   PanelKind
	Values *Object // PanelKeyValue only
	Text   string  // PanelText only
	Err    error   // PanelFailed only
}

// EmptyText is the placeholder shown when there is nothing to display.
func EmptyText(fieldName string) string {
	return fmt.Sprintf("No %s available", fieldName)
}

// OversizedText is the placeholder shown when the outer list exceeds
// MaxArraySize.
func OversizedText(count int) string {
	return fmt.Sprintf("Array too large to display (%d items)", count)
}

// Panels transforms raw input into panels labelled for fieldName.
//
// Empty or non-structured input yields one text panel saying nothing is
// available. An outer list longer than MaxArraySize yields one text panel
// instead of any records. Otherwise each item becomes a panel labelled
// with ItemLabel (or fieldName), numbered with ArrayIndexFormat unless the
// input was a single object or SkipArrayIndices is set.
func (t *Transformer) Panels(ctx context.Context, raw any, fieldName string, opts Options) ([]Panel, error) {
	if err := t.check(opts); err != nil {
		return nil, err
	}

	v, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	if opts.FlattenSingleArrays {
		if list, ok := asList(v); ok && len(list) == 1 {
			v = list[0]
		}
	}

	if opts.MaxArraySize > 0 {
		if list, ok := asList(v); ok && len(list) > opts.MaxArraySize {
			return []Panel{textPanel(fieldName, OversizedText(len(list)))}, nil
		}
	}

	items, wrapped := normalizeDecoded(v)
	if len(items) == 0 {
		return []Panel{textPanel(fieldName, EmptyText(fieldName))}, nil
	}

	records, err := t.transformItems(ctx, items, opts)
	if err != nil {
		return nil, err
	}

	itemLabel := opts.ItemLabel
	if itemLabel == "" {
		itemLabel = fieldName
	}

	panels := make([]Panel, len(records))
	for i, rec := range records {
		label := itemLabel
		if !opts.SkipArrayIndices && !wrapped {
			label += fmt.Sprintf(opts.indexFormat(), i+1)
		}

		if rec.Failed() {
			panels[i] = Panel{Label: label, Kind: PanelFailed, Err: rec.Err}
			continue
		}
		panels[i] = Panel{Label: label, Kind: PanelKeyValue, Values: rec.Values}
	}
	return panels, nil
}

func textPanel(label, text string) Panel {
	return Panel{Label: label, Kind: PanelText, Text: text}
}
