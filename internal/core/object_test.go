package core

import (
	"encoding/json"
	"reflect"
	"strconv"
	"testing"
)

func TestObject_SetKeepsFirstPosition(t *testing.T) {
	obj := NewObject()
	obj.Set("b", 1)
	obj.Set("a", 2)
	obj.Set("b", 3)

	if got := obj.Keys(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Keys() = %v, want [b a]", got)
	}
	if v, _ := obj.Get("b"); v != 3 {
		t.Errorf("Get(b) = %v, want 3", v)
	}
}

func TestObject_IsList(t *testing.T) {
	tests := []struct {
		keys []string
		want bool
	}{
		{nil, false},
		{[]string{"0"}, true},
		{[]string{"0", "1", "2"}, true},
		{[]string{"1", "0"}, true},
		{[]string{"2", "0", "1"}, true},
		{[]string{"0", "2"}, false},
		{[]string{"1"}, false},
		{[]string{"00"}, false},
		{[]string{"-1", "0"}, false},
		{[]string{"0", "a"}, false},
		{[]string{"a"}, false},
	}

	for _, tt := range tests {
		obj := NewObject()
		for _, k := range tt.keys {
			obj.Set(k, true)
		}
		if got := obj.IsList(); got != tt.want {
			t.Errorf("IsList(%v) = %v, want %v", tt.keys, got, tt.want)
		}
	}
}

func TestObject_ListValues(t *testing.T) {
	obj := NewObject()
	obj.Set("2", "c")
	obj.Set("0", "a")
	obj.Set("1", "b")

	got, ok := obj.ListValues()
	if !ok {
		t.Fatal("ListValues() ok = false, want true")
	}
	if want := []any{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ListValues() = %v, want %v", got, want)
	}

	obj.Set("x", "d")
	if _, ok := obj.ListValues(); ok {
		t.Error("ListValues() ok = true after adding a non-index key")
	}
}

func TestObject_MarshalJSON(t *testing.T) {
	obj := NewObject()
	obj.Set("z", "<tag>")
	obj.Set("a", []any{json.Number("1"), nil})
	inner := NewObject()
	inner.Set("k", true)
	obj.Set("m", inner)

	got, err := obj.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	want := `{"z":"<tag>","a":[1,null],"m":{"k":true}}`
	if string(got) != want {
		t.Errorf("MarshalJSON() = %s, want %s", got, want)
	}

	if s := DisplayValue(obj); s != `{"z":"<tag>","a":[1,null],"m":{"k":true}}` {
		t.Errorf("DisplayValue() = %v, want unescaped JSON", s)
	}
}

func TestObjectFromMap_IndexKeysSortNumerically(t *testing.T) {
	m := make(map[string]any)
	for i := range 12 {
		m[strconv.Itoa(i)] = i
	}
	m["name"] = "x"

	want := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "name"}
	if got := ObjectFromMap(m).Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestDisplayValue_ListLikeObject(t *testing.T) {
	tags := NewObject()
	tags.Set("1", "b")
	tags.Set("0", "a")
	outer := NewObject()
	outer.Set("tags", tags)
	outer.Set("n", 1)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"list-like", tags, `["a","b"]`},
		{"nested", outer, `{"tags":["a","b"],"n":1}`},
		{"slice of list-like", []any{tags}, `[["a","b"]]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayValue(tt.in); got != tt.want {
				t.Errorf("DisplayValue() = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestObjectFromMap_SortsAndConverts(t *testing.T) {
	obj := ObjectFromMap(map[string]any{
		"b": []string{"x"},
		"a": map[string]int{"n": 1},
	})

	if got := obj.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v, want [a b]", got)
	}
	if v, _ := obj.Get("a"); !isMapLike(v) {
		t.Errorf("a = %T, want map-like *Object", v)
	}
	if v, _ := obj.Get("b"); !reflect.DeepEqual(v, []any{"x"}) {
		t.Errorf("b = %#v, want []any{x}", v)
	}
}
