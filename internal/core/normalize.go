package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Decode turns raw input into its canonical structural form.
//
// JSON text (string, []byte, json.RawMessage) is decoded with key order
// preserved; objects become *Object, arrays []any, numbers json.Number.
// Empty or whitespace-only text is treated as absent and yields nil.
// Native Go values are converted the same way without touching the input.
func Decode(raw any) (any, error) {
	switch t := raw.(type) {
	case string:
		return decodeText([]byte(t))
	case []byte:
		return decodeText(t)
	case json.RawMessage:
		return decodeText(t)
	}
	return canonical(raw), nil
}

func decodeText(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, &MalformedInputError{Err: syntaxError(data)}
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

// syntaxError produces a descriptive cause for text gjson rejected.
func syntaxError(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return errors.New("invalid JSON text")
}

func fromResult(r gjson.Result) any {
	switch r.Type {
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return json.Number(strings.TrimSpace(r.Raw))
	case gjson.String:
		return r.String()
	case gjson.JSON:
		if r.IsArray() {
			out := []any{}
			r.ForEach(func(_, v gjson.Result) bool {
				out = append(out, fromResult(v))
				return true
			})
			return out
		}
		obj := NewObject()
		r.ForEach(func(k, v gjson.Result) bool {
			obj.Set(k.String(), fromResult(v))
			return true
		})
		return obj
	}
	return nil
}

// Normalize coerces raw input into the sequence of items to transform.
//
// A list-like value is a sequence of items. Any other non-empty keyed value
// is a single item and is wrapped into a one-element sequence, reported by
// wrapped. Empty or non-structured input yields no items and no error; only
// undecodable JSON text fails, with a *MalformedInputError.
func Normalize(raw any) (items []*Object, wrapped bool, err error) {
	v, err := Decode(raw)
	if err != nil {
		return nil, false, err
	}
	items, wrapped = normalizeDecoded(v)
	return items, wrapped, nil
}

// normalizeDecoded does the work of Normalize for a value already returned
// by Decode.
func normalizeDecoded(v any) (items []*Object, wrapped bool) {
	var seq []any
	switch t := v.(type) {
	case []any:
		seq = t
	case *Object:
		if t.Len() == 0 {
			return nil, false
		}
		list, ok := t.ListValues()
		if !ok {
			return []*Object{t}, true
		}
		seq = list
	default:
		return nil, false
	}

	if len(seq) == 0 {
		return nil, false
	}

	items = make([]*Object, len(seq))
	for i, elem := range seq {
		items[i] = asItem(elem)
	}
	return items, false
}

// asItem views a sequence element as an item. Sequences are keyed by their
// indices; scalars produce an empty item.
func asItem(v any) *Object {
	switch t := v.(type) {
	case *Object:
		return t
	case []any:
		obj := NewObject()
		for i, elem := range t {
			obj.Set(strconv.Itoa(i), elem)
		}
		return obj
	}
	return NewObject()
}

// asList returns the elements of a list-like value.
func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case *Object:
		return t.ListValues()
	}
	return nil, false
}
