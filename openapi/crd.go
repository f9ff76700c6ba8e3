package openapi

import (
	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/internal/yamlx"
	"github.com/reoring/goprune/jsonschema"
)

// FromCRD scans a multi-document YAML bundle for the CustomResourceDefinition
// whose spec.names.kind is kind and converts its openAPIV3Schema.
func FromCRD(data []byte, kind string) (goprune.Descriptor, error) {
	return fromBundle(data, "kind "+kind, func(crd map[string]any) bool {
		names, _ := dig(crd, "spec", "names").(map[string]any)
		k, _ := names["kind"].(string)
		return k == kind
	})
}

// FromCRDName is FromCRD keyed by metadata.name (for example
// "widgets.example.com").
func FromCRDName(data []byte, name string) (goprune.Descriptor, error) {
	return fromBundle(data, "name "+name, func(crd map[string]any) bool {
		n, _ := dig(crd, "metadata", "name").(string)
		return n == name
	})
}

func fromBundle(data []byte, what string, match func(map[string]any) bool) (goprune.Descriptor, error) {
	var found map[string]any
	err := yamlx.EachDocument(data, func(doc any) bool {
		m, ok := doc.(map[string]any)
		if !ok {
			return true
		}
		if k, _ := m["kind"].(string); k != "CustomResourceDefinition" || !match(m) {
			return true
		}
		found = m
		return false
	})
	if err != nil {
		return nil, &goprune.ImporterParseError{Importer: importer, Msg: "invalid YAML bundle", Err: err}
	}
	if found == nil {
		return nil, goprune.NewImporterError(importer, "", "CustomResourceDefinition with %s not found in bundle", what)
	}
	schema := unwrapCRDSchema(found)
	if schema == nil {
		return nil, goprune.NewImporterError(importer, "/spec", "CustomResourceDefinition has no openAPIV3Schema")
	}
	return jsonschema.FromMap(kubeNormalize(schema).(map[string]any), jsonschema.WithLocalRefs())
}

// unwrapCRDSchema extracts openAPIV3Schema from a CRD document. It prefers
// spec.versions[] entries that are served (the first one otherwise) and falls
// back to the legacy spec.validation.openAPIV3Schema.
func unwrapCRDSchema(crd map[string]any) map[string]any {
	if vers, ok := dig(crd, "spec", "versions").([]any); ok {
		var first map[string]any
		for _, v := range vers {
			vm, _ := v.(map[string]any)
			oas, ok := dig(vm, "schema", "openAPIV3Schema").(map[string]any)
			if !ok {
				continue
			}
			if served, ok := vm["served"].(bool); !ok || served {
				return oas
			}
			if first == nil {
				first = oas
			}
		}
		if first != nil {
			return first
		}
	}
	oas, _ := dig(crd, "spec", "validation", "openAPIV3Schema").(map[string]any)
	return oas
}

// kubeNormalize returns a copy of a structural schema with the Kubernetes
// extensions rewritten into plain JSON Schema:
//   - x-kubernetes-preserve-unknown-fields keeps the whole subtree, so the
//     node becomes an untyped object with no properties;
//   - x-kubernetes-int-or-string becomes a number;
//   - x-kubernetes-embedded-resource gains apiVersion, kind and metadata.
func kubeNormalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if b, _ := t["x-kubernetes-int-or-string"].(bool); b {
			return map[string]any{"type": "number"}
		}
		if b, _ := t["x-kubernetes-preserve-unknown-fields"].(bool); b {
			return map[string]any{"type": "object"}
		}
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = kubeNormalize(vv)
		}
		if b, _ := t["x-kubernetes-embedded-resource"].(bool); b {
			props, _ := out["properties"].(map[string]any)
			if props == nil {
				props = map[string]any{}
			}
			for k, typ := range map[string]string{"apiVersion": "string", "kind": "string", "metadata": "object"} {
				if _, ok := props[k]; !ok {
					props[k] = map[string]any{"type": typ}
				}
			}
			out["properties"] = props
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = kubeNormalize(t[i])
		}
		return out
	}
	return v
}

func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[k]
	}
	return cur
}
