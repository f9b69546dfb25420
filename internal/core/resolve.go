package core

import (
	"context"
	"fmt"
)

// UnknownValue is shown when a lookup finds nothing and no fallback exists.
const UnknownValue = "Unknown"

// MissingValue is shown for nil values by the default resolver.
const MissingValue = "N/A"

// Formatter turns a raw leaf value into a display value. It receives the
// unflattened item the field came from. The returned value is used verbatim.
type Formatter func(value any, item *Object) (any, error)

// LookupDescriptor describes how to replace a raw value with a value from an
// external source, e.g. a customer id with the customer's name.
type LookupDescriptor struct {
	Source       string `json:"source" yaml:"source"`
	MatchField   string `json:"match" yaml:"match"`
	DisplayField string `json:"display" yaml:"display"`
	FallbackKey  string `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// Lookup resolves a raw value against an external source. It returns the
// matching record, or found=false when there is none. Errors abort the whole
// transformation.
type Lookup interface {
	Lookup(ctx context.Context, desc LookupDescriptor, value any) (record map[string]any, found bool, err error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, desc LookupDescriptor, value any) (map[string]any, bool, error)

func (f LookupFunc) Lookup(ctx context.Context, desc LookupDescriptor, value any) (map[string]any, bool, error) {
	return f(ctx, desc, value)
}

// FieldRecord is one field moving through the filter, label and resolve
// stages.
type FieldRecord struct {
	Key   string
	Label string
	Raw   any
	Item  *Object
}

// Resolve computes the display value of a field. Exactly one strategy
// applies, in order: a configured lookup, a configured formatter, or
// DisplayValue.
func Resolve(ctx context.Context, field FieldRecord, opts Options, lookup Lookup) (any, error) {
	if desc, ok := opts.Lookups[field.Key]; ok {
		return resolveLookup(ctx, field, desc, lookup)
	}
	if f, ok := opts.Formatters[field.Key]; ok {
		return applyFormatter(f, field)
	}
	return DisplayValue(field.Raw), nil
}

func resolveLookup(ctx context.Context, field FieldRecord, desc LookupDescriptor, lookup Lookup) (any, error) {
	if lookup == nil {
		return nil, &LookupResolutionError{Key: field.Key, Source: desc.Source, Err: errNoLookup}
	}

	record, found, err := lookup.Lookup(ctx, desc, field.Raw)
	if err != nil {
		return nil, &LookupResolutionError{Key: field.Key, Source: desc.Source, Err: err}
	}
	if found {
		return record[desc.DisplayField], nil
	}

	fallback := desc.FallbackKey
	if fallback == "" {
		fallback = field.Key
	}
	if v, ok := field.Item.Get(fallback); ok && v != nil {
		return v, nil
	}
	return UnknownValue, nil
}

// applyFormatter runs a caller-supplied formatter. Errors and panics are
// reported as *FormatterError.
func applyFormatter(f Formatter, field FieldRecord) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &FormatterError{Key: field.Key, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	v, ferr := f(field.Raw, field.Item)
	if ferr != nil {
		return nil, &FormatterError{Key: field.Key, Err: ferr}
	}
	return v, nil
}

// DisplayValue is the default resolution: structured values become JSON
// text, nil becomes MissingValue, anything else is returned as-is. List-like
// Objects encode as JSON arrays.
func DisplayValue(v any) any {
	if v == nil {
		return MissingValue
	}
	if !isStructured(v) {
		return v
	}
	s, err := encodeJSON(jsonShape(v))
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// jsonShape replaces list-like Objects with slices, at any depth.
func jsonShape(v any) any {
	switch t := v.(type) {
	case *Object:
		if list, ok := t.ListValues(); ok {
			return jsonShape(list)
		}
		out := NewObject()
		t.Range(func(k string, val any) bool {
			out.Set(k, jsonShape(val))
			return true
		})
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonShape(val)
		}
		return out
	}
	return v
}
