package goprune

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/goprune/internal/yamlx"
)

// ParseMap reads a descriptor written as JSON or YAML. Leaves are the type
// names "string", "number", "boolean", "object", "array" and "null" (or a YAML
// null); mappings become a Shape and sequences a List.
//
//	user:
//	  name: string
//	  tags: [string]
//	  address: {city: string, zip: number}
func ParseMap(data []byte) (Descriptor, error) {
	v, err := yamlx.Unmarshal(data)
	if err != nil {
		return nil, &ImporterParseError{Importer: "map", Msg: "invalid map text", Err: err}
	}
	if v == nil {
		return nil, NewImporterError("map", "/", "map text is empty")
	}
	return ParseMapValue(v)
}

// ParseMapValue converts already decoded map text (for example a field of a
// JSON request body) into a descriptor.
func ParseMapValue(v any) (Descriptor, error) {
	return mapValue(v, "")
}

func mapValue(v any, p pointer) (Descriptor, error) {
	switch t := v.(type) {
	case nil:
		return Null, nil
	case string:
		d, ok := tagByName(t)
		if !ok {
			return nil, NewImporterError("map", p.String(), "unknown type name %q", t)
		}
		return d, nil
	case map[string]any:
		shape := make(Shape, len(t))
		for k, e := range t {
			d, err := mapValue(e, p.Field(k))
			if err != nil {
				return nil, err
			}
			shape[k] = d
		}
		return shape, nil
	case []any:
		list := make(List, len(t))
		for i, e := range t {
			d, err := mapValue(e, p.Index(i))
			if err != nil {
				return nil, err
			}
			list[i] = d
		}
		return list, nil
	default:
		return nil, NewImporterError("map", p.String(), "unsupported map value of type %s", Classify(v))
	}
}

// tagByName accepts both the lower-case type names and the capitalised
// constructor spellings (String, Number, ...).
func tagByName(name string) (Descriptor, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string":
		return String, true
	case "number", "integer":
		return Number, true
	case "boolean", "bool":
		return Boolean, true
	case "object":
		return Object, true
	case "array":
		return Array, true
	case "null":
		return Null, true
	}
	return nil, false
}

// FormatMap is the inverse of ParseMapValue: it renders a descriptor as plain
// data ready for JSON or YAML encoding.
func FormatMap(d Descriptor) any {
	switch v := d.(type) {
	case nil:
		return nil
	case Shape:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = FormatMap(e)
		}
		return out
	case List:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = FormatMap(e)
		}
		return out
	default:
		return d.Type().String()
	}
}

// MarshalMap renders a descriptor as map text in the given format ("json"
// or "yaml").
func MarshalMap(d Descriptor, format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		return yamlx.Marshal(FormatMap(d))
	case "json", "":
		return json.MarshalIndent(FormatMap(d), "", "  ")
	default:
		return nil, NewImporterError("map", "", "unknown format %s", strconv.Quote(format))
	}
}
