package goprune

import (
	"encoding/json"
	"reflect"
)

// Classify reports the kind of a runtime value. It is total: anything that is
// not plain data classifies as TypeOther.
func Classify(v any) Type {
	switch x := v.(type) {
	case nil:
		return TypeNull
	case map[string]any:
		if x == nil {
			return TypeNull
		}
		return TypeObject
	case []any:
		if x == nil {
			return TypeNull
		}
		return TypeArray
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case float64, float32, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr:
		return TypeNumber
	}
	return classifyReflect(reflect.ValueOf(v))
}

func classifyReflect(rv reflect.Value) Type {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return TypeNull
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return TypeOther
		}
		if rv.IsNil() {
			return TypeNull
		}
		return TypeObject
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			// []byte encodes as a base64 string
			return TypeOther
		}
		if rv.IsNil() {
			return TypeNull
		}
		return TypeArray
	case reflect.Array:
		return TypeArray
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return TypeNumber
	default:
		return TypeOther
	}
}
