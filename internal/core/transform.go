package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/jsonkv/internal/logging"
)

var errNoLookup = errors.New("no lookup collaborator configured")

// Record is the output for one item: display values keyed by label, in the
// order the item's keys were traversed.
//
// When a formatter failed for the item, Values is nil and Err holds the
// *FormatterError.
type Record struct {
	Values *Object
	Err    error
}

// Failed reports whether the item could not be transformed.
func (r Record) Failed() bool {
	return r.Err != nil
}

// Transformer runs the transformation pipeline. It holds no per-call state
// and is safe for concurrent use as long as its Lookup is.
type Transformer struct {
	lookup Lookup
}

// NewTransformer creates a Transformer. lookup may be nil when no Options
// passed to it configure lookups.
func NewTransformer(lookup Lookup) *Transformer {
	return &Transformer{lookup: lookup}
}

// Transform converts raw input into one Record per item.
//
// Errors returned are fatal to the whole call: invalid Options,
// *MalformedInputError and *LookupResolutionError. Formatter failures are
// reported per item on Record.Err.
func (t *Transformer) Transform(ctx context.Context, raw any, opts Options) ([]Record, error) {
	if err := t.check(opts); err != nil {
		return nil, err
	}

	items, _, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	return t.transformItems(ctx, items, opts)
}

// Transform is a convenience for transformations without lookups.
func Transform(ctx context.Context, raw any, opts Options) ([]Record, error) {
	return NewTransformer(nil).Transform(ctx, raw, opts)
}

func (t *Transformer) check(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if len(opts.Lookups) > 0 && t.lookup == nil {
		return fmt.Errorf("%w: lookups configured but %v", ErrInvalidOptions, errNoLookup)
	}
	return nil
}

func (t *Transformer) transformItems(ctx context.Context, items []*Object, opts Options) ([]Record, error) {
	logger := logging.FromContext(ctx)

	records := make([]Record, 0, len(items))
	for i, item := range items {
		values, err := t.transformItem(ctx, item, opts)
		if err != nil {
			var fe *FormatterError
			if !errors.As(err, &fe) {
				return nil, err
			}
			logger.Warn("item transform failed", "item", i, "key", fe.Key, "error", fe.Err)
			records = append(records, Record{Err: err})
			continue
		}
		records = append(records, Record{Values: values})
	}

	logger.Debug("transformed items", "items", len(items))
	return records, nil
}

// transformItem runs flatten, filter, label and resolve for one item.
func (t *Transformer) transformItem(ctx context.Context, item *Object, opts Options) (*Object, error) {
	flat := item
	if !opts.KeepNested {
		flat = Flatten(item, opts.Separator())
	}

	values := NewObject()
	var err error
	flat.Range(func(key string, raw any) bool {
		if !opts.Include(key) {
			return true
		}

		field := FieldRecord{Key: key, Label: opts.LabelFor(key), Raw: raw, Item: item}

		var v any
		v, err = Resolve(ctx, field, opts, t.lookup)
		if err != nil {
			return false
		}
		values.Set(field.Label, v)
		return true
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}
