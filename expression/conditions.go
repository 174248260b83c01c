package expression

import (
	"slices"
)

// Cond is one entry of an ordered condition list. An empty Key marks a
// positional entry whose Value is used as is: raw SQL text, an Expression, a
// nested list or a closure. A non-empty Key is parsed as "field operator" and
// compared against Value.
type Cond struct {
	Key   string
	Value any
}

// Conditions is an ordered list of condition entries. Use it instead of a map
// when the order of the generated SQL matters.
type Conditions []Cond

// Pairs builds Conditions from alternating keys and values:
//
//	Pairs("name", "Ann", "age >", 18)
//
// A key that is not a string, or an odd trailing element, panics.
func Pairs(kv ...any) Conditions {
	if len(kv)%2 != 0 {
		raise(ErrInvalidArgument, "Pairs needs an even number of arguments, %d given", len(kv))
	}
	out := make(Conditions, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			raise(ErrInvalidArgument, "Pairs key %d must be a string, %s given", i/2, typeName(kv[i]))
		}
		out = append(out, Cond{Key: k, Value: kv[i+1]})
	}
	return out
}

// List builds positional Conditions from values.
func List(values ...any) Conditions {
	out := make(Conditions, len(values))
	for i, v := range values {
		out[i] = Cond{Value: v}
	}
	return out
}

// Clone copies the list, deep-cloning expression values.
func (c Conditions) Clone() Conditions {
	if c == nil {
		return nil
	}
	out := make(Conditions, len(c))
	for i, e := range c {
		out[i] = Cond{Key: e.Key, Value: cloneValue(e.Value)}
	}
	return out
}

// toConditions normalizes every accepted condition container into an ordered
// list. Maps are read in sorted key order. The second result is false for
// values that are not containers.
func toConditions(v any) (Conditions, bool) {
	switch x := v.(type) {
	case Conditions:
		return x, true
	case []Cond:
		return Conditions(x), true
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		out := make(Conditions, len(keys))
		for i, k := range keys {
			out[i] = Cond{Key: k, Value: x[k]}
		}
		return out, true
	case map[string]string:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		out := make(Conditions, len(keys))
		for i, k := range keys {
			out[i] = Cond{Key: k, Value: x[k]}
		}
		return out, true
	case []string:
		out := make(Conditions, len(x))
		for i, s := range x {
			out[i] = Cond{Value: s}
		}
		return out, true
	}
	if items, ok := toSlice(v); ok {
		return List(items...), true
	}
	return nil, false
}

// isContainer reports whether v is a condition list, map or slice.
func isContainer(v any) bool {
	_, ok := toConditions(v)
	return ok
}

// isEmpty mirrors the "nothing to add" test applied to positional entries:
// nil, empty strings and empty containers.
func isEmpty(v any) bool {
	if isNil(v) {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	if c, ok := toConditions(v); ok {
		return len(c) == 0
	}
	return false
}
