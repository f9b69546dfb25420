package core

// Flatten collapses nested map-like values of item into composite keys
// joined by sep, walking depth-first in pre-order. Lists, scalars, nil and
// empty structures are leaves and keep their value untouched.
//
//	{"user": {"name": "John", "tags": ["a"]}}
//	=> {"user → name": "John", "user → tags": ["a"]}
//
// If two paths produce the same composite key, the later leaf wins and the
// key keeps its first position.
func Flatten(item *Object, sep string) *Object {
	out := NewObject()
	flattenInto(out, item, "", sep)
	return out
}

func flattenInto(out, obj *Object, prefix, sep string) {
	obj.Range(func(k string, v any) bool {
		key := k
		if prefix != "" {
			key = prefix + sep + k
		}

		if isMapLike(v) {
			flattenInto(out, v.(*Object), key, sep)
		} else {
			out.Set(key, v)
		}
		return true
	})
}
