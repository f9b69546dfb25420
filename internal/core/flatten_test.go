package core

import (
	"encoding/json"
	"reflect"
	"testing"
)

func decodeObject(t *testing.T, raw string) *Object {
	t.Helper()
	v, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode(%q) error = %v", raw, err)
	}
	obj, ok := v.(*Object)
	if !ok {
		t.Fatalf("Decode(%q) = %T, want *Object", raw, v)
	}
	return obj
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		sep      string
		wantKeys []string
	}{
		{
			name:     "flat item is unchanged",
			raw:      `{"a":1,"b":2}`,
			sep:      " → ",
			wantKeys: []string{"a", "b"},
		},
		{
			name:     "nested objects in pre-order",
			raw:      `{"user":{"name":"John","address":{"city":"Lagos"}},"id":1}`,
			sep:      " → ",
			wantKeys: []string{"user → name", "user → address → city", "id"},
		},
		{
			name:     "lists are leaves",
			raw:      `{"tags":["a","b"],"rows":[{"x":1}]}`,
			sep:      ".",
			wantKeys: []string{"tags", "rows"},
		},
		{
			name:     "empty object is a leaf",
			raw:      `{"meta":{},"n":null}`,
			sep:      ".",
			wantKeys: []string{"meta", "n"},
		},
		{
			name:     "list-like object is a leaf",
			raw:      `{"pair":{"0":"a","1":"b"}}`,
			sep:      ".",
			wantKeys: []string{"pair"},
		},
		{
			name:     "out of order index keys are a leaf",
			raw:      `{"pair":{"1":"b","0":"a"},"id":1}`,
			sep:      ".",
			wantKeys: []string{"pair", "id"},
		},
		{
			name:     "colliding composite keys keep first position",
			raw:      `{"a.b":1,"x":2,"a":{"b":3}}`,
			sep:      ".",
			wantKeys: []string{"a.b", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Flatten(decodeObject(t, tt.raw), tt.sep)
			if !reflect.DeepEqual(got.Keys(), tt.wantKeys) {
				t.Errorf("Flatten() keys = %v, want %v", got.Keys(), tt.wantKeys)
			}
		})
	}
}

func TestFlatten_CollisionLastWins(t *testing.T) {
	got := Flatten(decodeObject(t, `{"a.b":1,"a":{"b":3}}`), ".")

	if v, _ := got.Get("a.b"); v != json.Number("3") {
		t.Errorf("a.b = %v, want 3", v)
	}
}

func TestFlatten_LeafCountAndIdempotence(t *testing.T) {
	item := decodeObject(t, `{"a":{"b":{"c":1,"d":[1,2]},"e":null},"f":"x","g":{}}`)

	once := Flatten(item, "/")
	if once.Len() != 5 {
		t.Errorf("leaf count = %d, want 5 (%v)", once.Len(), once.Keys())
	}

	twice := Flatten(once, "/")
	if !reflect.DeepEqual(once.Keys(), twice.Keys()) {
		t.Errorf("Flatten not idempotent: %v vs %v", once.Keys(), twice.Keys())
	}
}

func TestFlatten_DoesNotModifyItem(t *testing.T) {
	item := decodeObject(t, `{"a":{"b":1}}`)

	Flatten(item, ".")

	if got := item.Keys(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("item keys = %v, want [a]", got)
	}
}

func TestFlatten_NativeIndexedMapIsLeaf(t *testing.T) {
	item := ObjectFromMap(map[string]any{"rows": indexedMap(11), "id": 1})

	got := Flatten(item, ".")
	if want := []string{"id", "rows"}; !reflect.DeepEqual(got.Keys(), want) {
		t.Errorf("Flatten() keys = %v, want %v", got.Keys(), want)
	}
}
