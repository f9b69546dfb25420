package core

// object.go defines the ordered map used for items, flattened items, and
// output records.
//
// JSON objects decode into *Object so that document key order survives the
// whole pipeline. Go maps given as native input are converted with their keys
// sorted, since a Go map has no order of its own.

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Object is an insertion-ordered map from string keys to values.
// The zero value is not usable; create one with NewObject.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set stores value under key. A key that already exists keeps its original
// position and only its value is replaced.
func (o *Object) Set(key string, value any) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value for key and whether the key is present.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns a copy of the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Values returns the values in key order.
func (o *Object) Values() []any {
	if o == nil {
		return nil
	}
	values := make([]any, len(o.keys))
	for i, k := range o.keys {
		values[i] = o.values[k]
	}
	return values
}

// Range calls fn for each key/value pair in order until fn returns false.
func (o *Object) Range(fn func(key string, value any) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.values[k]) {
			return
		}
	}
}

// IsList reports whether the keys form the range "0" to "n-1", in any
// order. An empty Object is not a list.
func (o *Object) IsList() bool {
	_, ok := o.ListValues()
	return ok
}

// ListValues returns the values ordered by index when the Object is a list.
func (o *Object) ListValues() ([]any, bool) {
	n := o.Len()
	if n == 0 {
		return nil, false
	}
	out := make([]any, n)
	for _, k := range o.keys {
		i, ok := listIndex(k)
		if !ok || i >= n {
			return nil, false
		}
		out[i] = o.values[k]
	}
	return out, true
}

// listIndex parses a canonical non-negative integer key; "01" and "-1" are
// not indices.
func listIndex(key string) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || strconv.Itoa(i) != key {
		return 0, false
	}
	return i, true
}

// MarshalJSON encodes the Object as a JSON object in key order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeJSON(k)
		if err != nil {
			return nil, err
		}
		buf.WriteString(key)
		buf.WriteByte(':')

		val, err := encodeJSON(o.values[k])
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", k, err)
		}
		buf.WriteString(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ObjectFromMap converts a Go map into an Object with sorted keys. Index
// keys sort numerically ahead of the rest, so "10" follows "9".
// Nested maps and slices are converted as well.
func ObjectFromMap(m map[string]any) *Object {
	keys := slices.SortedFunc(maps.Keys(m), compareKeys)

	obj := &Object{keys: keys, values: make(map[string]any, len(m))}
	for _, k := range keys {
		obj.values[k] = canonical(m[k])
	}
	return obj
}

func compareKeys(a, b string) int {
	ai, aok := listIndex(a)
	bi, bok := listIndex(b)
	switch {
	case aok && bok:
		return cmp.Compare(ai, bi)
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(a, b)
}

// isMapLike reports whether v is a non-empty keyed structure that is not a
// list. Only map-like values are descended into by the flattener.
func isMapLike(v any) bool {
	obj, ok := v.(*Object)
	return ok && obj.Len() > 0 && !obj.IsList()
}

// isStructured reports whether v is a keyed or sequential structure.
func isStructured(v any) bool {
	switch v.(type) {
	case *Object, []any:
		return true
	}
	return false
}

// canonical converts native Go values into the shapes the pipeline works
// with: *Object for keyed structures and []any for sequences. Scalars are
// returned unchanged. The input is never modified.
func canonical(v any) any {
	switch t := v.(type) {
	case nil, string, bool, json.Number, []byte:
		return v
	case *Object:
		if t == nil {
			return nil
		}
		obj := &Object{keys: t.Keys(), values: make(map[string]any, len(t.values))}
		for k, val := range t.values {
			obj.values[k] = canonical(val)
		}
		return obj
	case map[string]any:
		return ObjectFromMap(t)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = canonical(val)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = canonical(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return ObjectFromMap(m)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}

// encodeJSON encodes v without HTML escaping and without a trailing newline.
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
