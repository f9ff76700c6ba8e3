package goprune

import (
	"reflect"
)

// Clone returns a structural deep copy of v. Objects become map[string]any and
// arrays become []any, including typed Go maps, slices and arrays reached
// through pointers. Scalars are copied by value. Values that are not plain
// data (structs, functions, channels) are shared with the input.
func Clone(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case map[string]any:
		if x == nil {
			return nil
		}
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Clone(e)
		}
		return out
	case []any:
		if x == nil {
			return nil
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Clone(e)
		}
		return out
	case string, bool, float64:
		return v
	}
	return cloneReflect(v)
}

func cloneReflect(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch Classify(v) {
	case TypeNull:
		return nil
	case TypeObject:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Clone(iter.Value().Interface())
		}
		return out
	case TypeArray:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Clone(rv.Index(i).Interface())
		}
		return out
	case TypeOther:
		return v
	default:
		// scalars behind a pointer are dereferenced
		return rv.Interface()
	}
}
