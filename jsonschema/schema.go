package jsonschema

import (
	goprune "github.com/reoring/goprune"
)

// Schema is the subset of JSON Schema a map descriptor can express. It is
// used for export; properties are never required and additional properties
// are left open, matching how the reducer treats absent and alien keys.
type Schema struct {
	Type string `json:"type,omitempty"`

	// Object
	Properties map[string]*Schema `json:"properties,omitempty"`

	// Array
	Items       *Schema   `json:"items,omitempty"`
	PrefixItems []*Schema `json:"prefixItems,omitempty"`
}

// Export renders a descriptor as a JSON Schema. A List with more than one
// entry becomes prefixItems for the leading positions plus items taken from
// its first entry, which is what the reducer applies past the prefix.
func Export(d goprune.Descriptor) *Schema {
	switch v := d.(type) {
	case goprune.Shape:
		props := make(map[string]*Schema, len(v))
		for k, child := range v {
			props[k] = Export(child)
		}
		return &Schema{Type: "object", Properties: props}
	case goprune.List:
		s := &Schema{Type: "array"}
		if len(v) == 0 {
			return s
		}
		s.Items = Export(v[0])
		if len(v) > 1 {
			for _, e := range v {
				s.PrefixItems = append(s.PrefixItems, Export(e))
			}
		}
		return s
	case nil:
		return &Schema{}
	default:
		return &Schema{Type: d.Type().String()}
	}
}

// Reduce converts schema and prunes input against it in one step.
func Reduce(input any, schema map[string]any, opts ...goprune.Options) (any, error) {
	m, err := FromMap(schema)
	if err != nil {
		return nil, err
	}
	return goprune.Reduce(input, m, opts...)
}
