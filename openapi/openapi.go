// Package openapi imports map descriptors from OpenAPI 3 documents and
// Kubernetes CustomResourceDefinitions.
package openapi

import (
	"context"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	goprune "github.com/reoring/goprune"
)

const importer = "openapi"

// FromDocument loads an OpenAPI 3 document (JSON or YAML) and converts the
// schema registered under components.schemas[component]. References are
// resolved by the loader; a schema that refers back to itself is an error.
func FromDocument(ctx context.Context, data []byte, component string) (goprune.Descriptor, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &goprune.ImporterParseError{Importer: importer, Msg: "invalid OpenAPI document", Err: err}
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil, goprune.NewImporterError(importer, "/components/schemas", "document declares no schemas")
	}
	ref, ok := doc.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return nil, goprune.NewImporterError(importer, "/components/schemas", "schema %q not found; available: %s",
			component, strings.Join(schemaNames(doc.Components.Schemas), ", "))
	}
	c := &converter{visiting: map[*openapi3.Schema]bool{}}
	return c.root(ref.Value, "/components/schemas/"+escape(component))
}

func schemaNames(s openapi3.Schemas) []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

type converter struct {
	visiting map[*openapi3.Schema]bool
}

func (c *converter) root(s *openapi3.Schema, path string) (goprune.Descriptor, error) {
	t := typeOf(s)
	props := c.properties(s)
	switch {
	case len(props) > 0 && (t == "object" || t == ""):
		return c.convert(s, path)
	case t == "array" && s.Items != nil:
		return c.convert(s, path)
	}
	return nil, goprune.NewImporterError(importer, path, `schema must have "properties" or be an array type`)
}

func (c *converter) convert(s *openapi3.Schema, path string) (goprune.Descriptor, error) {
	if s == nil {
		return goprune.Object, nil
	}
	if c.visiting[s] {
		return nil, goprune.NewImporterError(importer, path, "cyclic schema reference")
	}
	c.visiting[s] = true
	defer delete(c.visiting, s)

	if s.Type == nil || len(*s.Type) == 0 {
		if alt := firstAlternative(s); alt != nil {
			return c.convert(alt, path)
		}
	}

	switch typeOf(s) {
	case "string":
		return goprune.String, nil
	case "number", "integer":
		return goprune.Number, nil
	case "boolean":
		return goprune.Boolean, nil
	case "null":
		return goprune.Null, nil
	case "array":
		if s.Items == nil || s.Items.Value == nil {
			return goprune.Array, nil
		}
		elem, err := c.convert(s.Items.Value, path+"/items")
		if err != nil {
			return nil, err
		}
		return goprune.ArrayOf(elem), nil
	case "object", "":
		props := c.properties(s)
		if len(props) == 0 {
			return goprune.Object, nil
		}
		out := make(goprune.Shape, len(props))
		for _, k := range sortedKeys(props) {
			d, err := c.convert(props[k], path+"/properties/"+escape(k))
			if err != nil {
				return nil, err
			}
			out[k] = d
		}
		return out, nil
	}
	return goprune.Object, nil
}

// properties merges allOf branches left to right, then the schema's own
// properties on top.
func (c *converter) properties(s *openapi3.Schema) map[string]*openapi3.Schema {
	out := map[string]*openapi3.Schema{}
	for _, b := range s.AllOf {
		if b == nil || b.Value == nil || c.visiting[b.Value] {
			continue
		}
		for k, v := range c.properties(b.Value) {
			out[k] = v
		}
	}
	for k, ref := range s.Properties {
		if ref != nil {
			out[k] = ref.Value
		}
	}
	return out
}

// typeOf returns the first non-null type, or "null" when that is all the
// schema allows. allOf branches supply a type when the schema has none.
func typeOf(s *openapi3.Schema) string {
	if s.Type != nil {
		sawNull := false
		for _, t := range *s.Type {
			if t == "null" {
				sawNull = true
				continue
			}
			return t
		}
		if sawNull {
			return "null"
		}
	}
	for _, b := range s.AllOf {
		if b != nil && b.Value != nil && b.Value.Type != nil {
			if t := typeOf(b.Value); t != "" {
				return t
			}
		}
	}
	return ""
}

func firstAlternative(s *openapi3.Schema) *openapi3.Schema {
	for _, refs := range []openapi3.SchemaRefs{s.AnyOf, s.OneOf} {
		if len(refs) == 0 {
			continue
		}
		for _, r := range refs {
			if r == nil || r.Value == nil || typeOf(r.Value) == "null" {
				continue
			}
			return r.Value
		}
		return &openapi3.Schema{Type: &openapi3.Types{"null"}}
	}
	return nil
}

func sortedKeys(m map[string]*openapi3.Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func escape(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}
