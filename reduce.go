package goprune

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/reoring/goprune/i18n"
)

// Reduce prunes input down to what m declares and returns the pruned copy.
// The input and the descriptor are never modified. When several Options are
// given the last one wins.
//
// Errors: *InvalidRootError for a null input without AllowNullish,
// *InvalidMapError for a nil map without PermitUndefinedMap and
// *AlienKeyError for an undeclared member under ThrowErrorOnAlien.
func Reduce(input any, m Descriptor, opts ...Options) (any, error) {
	r := &reducer{opt: lastOptions(opts)}
	return r.run(input, m)
}

// ReduceWithReport behaves like Reduce and also returns one Issue for every
// member that was dropped, nulled or filled in.
func ReduceWithReport(input any, m Descriptor, opts ...Options) (any, Issues, error) {
	r := &reducer{opt: lastOptions(opts), collect: true}
	out, err := r.run(input, m)
	if err != nil {
		return nil, r.issues, err
	}
	return out, r.issues, nil
}

// Materialize fills in every key and element m declares that v lacks: empty
// containers for non-empty nested descriptors, null otherwise. Present
// members, including present nulls, are left alone. v is modified in place
// and returned; arrays may be reallocated when padded.
func Materialize(v any, m Descriptor) any {
	r := &reducer{}
	return r.materialize(v, m, "")
}

type reducer struct {
	opt     Options
	collect bool
	issues  Issues
}

func (r *reducer) run(input any, m Descriptor) (any, error) {
	kind := Classify(input)
	if kind == TypeNull {
		if r.opt.AllowNullish {
			return input, nil
		}
		return nil, &InvalidRootError{}
	}
	if m == nil {
		if r.opt.PermitUndefinedMap {
			return input, nil
		}
		return nil, &InvalidMapError{}
	}
	if _, ok := m.(List); ok && kind == TypeArray && !r.opt.KeepKeys && lengthOf(input) == 0 {
		return input, nil
	}
	if r.opt.PermitEmptyMap && Declared(m) == 0 {
		return input, nil
	}
	if kind == TypeOther {
		return r.opaqueRoot(m), nil
	}

	out := Clone(input)
	var err error
	switch x := out.(type) {
	case map[string]any:
		err = r.object(x, m, "")
	case []any:
		out, err = r.array(x, m, "")
	}
	if err != nil {
		return nil, err
	}
	if r.opt.KeepKeys {
		out = r.materialize(out, m, "")
	}
	return out, nil
}

// opaqueRoot replaces a root that is not plain data, such as a struct or a
// func, with what an input declaring nothing reduces to: an empty container
// for a Shape or List map, null for a tag.
func (r *reducer) opaqueRoot(m Descriptor) any {
	r.note("", CodeInvalidType, map[string]string{"key": "", "expected": m.Type().String(), "got": TypeOther.String()},
		m.Type().String(), TypeOther.String())
	var out any
	switch m.(type) {
	case Shape:
		out = map[string]any{}
	case List:
		out = []any{}
	default:
		return nil
	}
	if r.opt.KeepKeys {
		out = r.materialize(out, m, "")
	}
	return out
}

// object prunes obj in place. Members of an object described by anything
// other than a Shape are all undeclared.
func (r *reducer) object(obj map[string]any, m Descriptor, p pointer) error {
	shape, _ := m.(Shape)
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, keep, err := r.member(obj[k], shape[k], p.Field(k), k)
		if err != nil {
			return err
		}
		if keep {
			obj[k] = v
		} else {
			delete(obj, k)
		}
	}
	return nil
}

// array prunes arr in place. Dropped elements are removed and the array
// compacted, unless positions are significant: under KeepKeys, or for a
// tuple List of more than one entry. Then the slot stays, holding a seed
// for its entry under KeepKeys and null otherwise.
func (r *reducer) array(arr []any, m Descriptor, p pointer) ([]any, error) {
	list, _ := m.(List)
	positional := len(list) > 1 || (r.opt.KeepKeys && len(list) > 0)
	out := arr[:0]
	for i, e := range arr {
		entry := list.At(i)
		if positional && entry != nil && !r.opt.AllowNullishKeys && Classify(e) == TypeNull {
			if r.opt.KeepKeys {
				r.note(p.Index(i), CodeNullValue, map[string]string{"key": strconv.Itoa(i)}, "", "")
			}
			out = append(out, r.hole(entry, p.Index(i), strconv.Itoa(i)))
			continue
		}
		v, keep, err := r.member(e, entry, p.Index(i), strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		switch {
		case keep:
			out = append(out, v)
		case positional:
			out = append(out, r.hole(entry, p.Index(i), strconv.Itoa(i)))
		}
	}
	clear(arr[len(out):])
	return out, nil
}

// hole fills an array slot whose element did not survive.
func (r *reducer) hole(entry Descriptor, p pointer, key string) any {
	if !r.opt.KeepKeys {
		return nil
	}
	r.note(p, CodeMaterialized, map[string]string{"key": key}, "", "")
	return seed(entry)
}

// member decides the fate of one object member or array element. Nested
// containers are pruned first; the survival checks use the kind the value
// had on entry.
func (r *reducer) member(v any, entry Descriptor, p pointer, key string) (any, bool, error) {
	kind := Classify(v)
	var err error
	switch e := entry.(type) {
	case Shape:
		if kind == TypeObject {
			err = r.object(v.(map[string]any), e, p)
		}
	case List:
		if kind == TypeArray {
			v, err = r.array(v.([]any), e, p)
		}
	}
	if err != nil {
		return nil, false, err
	}

	switch {
	case entry == nil:
		if r.opt.ThrowErrorOnAlien {
			return nil, false, &AlienKeyError{Path: p.String(), Key: key}
		}
		r.note(p, CodeUnknownKey, map[string]string{"key": key}, "", "")
		return nil, false, nil
	case kind == TypeNull:
		if r.opt.AllowNullishKeys {
			return v, true, nil
		}
		r.note(p, CodeNullValue, map[string]string{"key": key}, "", "")
		return nil, false, nil
	case kind != entry.Type():
		data := map[string]string{"key": key, "expected": entry.Type().String(), "got": kind.String()}
		r.note(p, CodeInvalidType, data, entry.Type().String(), kind.String())
		if r.opt.KeepKeys {
			// seeded like a missing member so a second pass keeps it as is
			return seed(entry), true, nil
		}
		return nil, false, nil
	}
	return v, true, nil
}

func (r *reducer) materialize(v any, m Descriptor, p pointer) any {
	switch d := m.(type) {
	case Shape:
		obj, ok := v.(map[string]any)
		if !ok {
			return v
		}
		for _, k := range d.Keys() {
			entry := d[k]
			if entry == nil {
				continue
			}
			cur, present := obj[k]
			if !present {
				cur = seed(entry)
				r.note(p.Field(k), CodeMaterialized, map[string]string{"key": k}, "", "")
			}
			obj[k] = r.materialize(cur, entry, p.Field(k))
		}
		return obj
	case List:
		arr, ok := v.([]any)
		if !ok || len(d) == 0 {
			return v
		}
		for i := len(arr); i < len(d); i++ {
			arr = append(arr, seed(d.At(i)))
			r.note(p.Index(i), CodeMaterialized, map[string]string{"key": strconv.Itoa(i)}, "", "")
		}
		for i := range arr {
			arr[i] = r.materialize(arr[i], d.At(i), p.Index(i))
		}
		return arr
	}
	return v
}

// seed is the placeholder for a declared member the input lacks.
func seed(d Descriptor) any {
	switch v := d.(type) {
	case Shape:
		if len(v) > 0 {
			return map[string]any{}
		}
	case List:
		if len(v) > 0 {
			return []any{}
		}
	}
	return nil
}

func (r *reducer) note(p pointer, code string, data map[string]string, expected, got string) {
	if !r.collect {
		return
	}
	r.issues = AppendIssues(r.issues, Issue{
		Path:     p.String(),
		Code:     code,
		Message:  i18n.T(code, data),
		Expected: expected,
		Got:      got,
	})
}

// lengthOf returns the element count of a value classified as an array.
func lengthOf(v any) int {
	if x, ok := v.([]any); ok {
		return len(x)
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Len()
}
