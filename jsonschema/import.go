// Package jsonschema converts JSON Schema documents into goprune map
// descriptors and back.
package jsonschema

import (
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/internal/yamlx"
)

const importer = "jsonschema"

// Option configures an import.
type Option func(*config)

type config struct {
	localRefs bool
}

// WithLocalRefs resolves "#/$defs/<name>" and "#/definitions/<name>"
// references against the document root. Without it any $ref is an error,
// since documents are expected to be dereferenced beforehand.
func WithLocalRefs() Option { return func(c *config) { c.localRefs = true } }

// FromMap converts a decoded JSON Schema. The root must declare properties
// (with or without type "object") or be an array with items.
func FromMap(schema map[string]any, opts ...Option) (goprune.Descriptor, error) {
	if schema == nil {
		return nil, goprune.NewImporterError(importer, "/", "schema must be an object")
	}
	c := &converter{root: schema, visiting: map[string]bool{}, memo: map[string]goprune.Descriptor{}}
	for _, o := range opts {
		o(&c.cfg)
	}
	return c.convertRoot(schema, "")
}

// FromJSON decodes a JSON Schema document and converts it.
func FromJSON(data []byte, opts ...Option) (goprune.Descriptor, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &goprune.ImporterParseError{Importer: importer, Msg: "invalid JSON", Err: err}
	}
	return fromValue(v, opts)
}

// FromYAML decodes a JSON Schema written as YAML and converts it.
func FromYAML(data []byte, opts ...Option) (goprune.Descriptor, error) {
	v, err := yamlx.Unmarshal(data)
	if err != nil {
		return nil, &goprune.ImporterParseError{Importer: importer, Msg: "invalid YAML", Err: err}
	}
	return fromValue(v, opts)
}

func fromValue(v any, opts []Option) (goprune.Descriptor, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, goprune.NewImporterError(importer, "/", "schema must be an object")
	}
	return FromMap(m, opts...)
}

type converter struct {
	cfg      config
	root     map[string]any
	visiting map[string]bool
	memo     map[string]goprune.Descriptor
}

func (c *converter) convertRoot(s map[string]any, path string) (goprune.Descriptor, error) {
	if ref, ok := s["$ref"].(string); ok {
		if !c.cfg.localRefs {
			return nil, goprune.NewImporterError(importer, at(path),
				"$ref is not supported; dereference the schema before importing")
		}
		target, err := c.lookup(ref, path)
		if err != nil {
			return nil, err
		}
		return c.withRef(ref, path, func() (goprune.Descriptor, error) { return c.convertRoot(target, path) })
	}
	s, err := c.mergeAllOf(s, path, map[string]bool{})
	if err != nil {
		return nil, err
	}
	props, hasProps := s["properties"].(map[string]any)
	t := typeName(s)
	switch {
	case hasProps && (t == "object" || t == ""):
		return c.shape(props, path)
	case t == "array" && s["items"] != nil:
		elem, err := c.convert(s["items"], path+"/items")
		if err != nil {
			return nil, err
		}
		return goprune.ArrayOf(elem), nil
	default:
		return nil, goprune.NewImporterError(importer, at(path),
			`schema must have "properties" or be an array type`)
	}
}

func (c *converter) shape(props map[string]any, path string) (goprune.Descriptor, error) {
	out := make(goprune.Shape, len(props))
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p := path + "/properties/" + escape(k)
		if m, ok := props[k].(map[string]any); ok && !c.cfg.localRefs {
			if _, isRef := m["$ref"]; isRef {
				return nil, goprune.NewImporterError(importer, p,
					"$ref found in property %q; dereference the schema before importing", k)
			}
		}
		d, err := c.convert(props[k], p)
		if err != nil {
			return nil, err
		}
		out[k] = d
	}
	return out, nil
}

// convert maps one property schema to a descriptor.
func (c *converter) convert(raw any, path string) (goprune.Descriptor, error) {
	s, ok := raw.(map[string]any)
	if !ok {
		// boolean schemas and malformed entries accept anything
		return goprune.Object, nil
	}
	if ref, ok := s["$ref"].(string); ok {
		if !c.cfg.localRefs {
			return nil, goprune.NewImporterError(importer, at(path),
				"$ref is not supported; dereference the schema before importing")
		}
		target, err := c.lookup(ref, path)
		if err != nil {
			return nil, err
		}
		return c.withRef(ref, path, func() (goprune.Descriptor, error) { return c.convert(target, path) })
	}
	s, err := c.mergeAllOf(s, path, map[string]bool{})
	if err != nil {
		return nil, err
	}
	if _, typed := s["type"]; !typed {
		if alt, ok := firstAlternative(s); ok {
			return c.convert(alt.schema, path+alt.path)
		}
	}

	switch typeName(s) {
	case "string":
		return goprune.String, nil
	case "number", "integer":
		return goprune.Number, nil
	case "boolean":
		return goprune.Boolean, nil
	case "object":
		if props, ok := s["properties"].(map[string]any); ok {
			return c.shape(props, path)
		}
		return goprune.Object, nil
	case "array":
		if items, ok := s["items"]; ok && items != nil {
			elem, err := c.convert(items, path+"/items")
			if err != nil {
				return nil, err
			}
			return goprune.ArrayOf(elem), nil
		}
		return goprune.Array, nil
	case "null":
		return goprune.Null, nil
	case "":
		if props, ok := s["properties"].(map[string]any); ok {
			return c.shape(props, path)
		}
	}
	return goprune.Object, nil
}

func (c *converter) withRef(ref, path string, fn func() (goprune.Descriptor, error)) (goprune.Descriptor, error) {
	if d, ok := c.memo[ref]; ok {
		return d, nil
	}
	if c.visiting[ref] {
		return nil, goprune.NewImporterError(importer, at(path), "cyclic $ref %s", ref)
	}
	c.visiting[ref] = true
	d, err := fn()
	delete(c.visiting, ref)
	if err != nil {
		return nil, err
	}
	c.memo[ref] = d
	return d, nil
}

func (c *converter) lookup(ref, path string) (map[string]any, error) {
	for _, prefix := range []string{"#/$defs/", "#/definitions/"} {
		if !strings.HasPrefix(ref, prefix) {
			continue
		}
		name := strings.TrimPrefix(ref, prefix)
		defs, _ := c.root[strings.TrimSuffix(strings.TrimPrefix(prefix, "#/"), "/")].(map[string]any)
		target, ok := defs[unescape(name)].(map[string]any)
		if !ok {
			return nil, goprune.NewImporterError(importer, at(path), "unresolvable $ref %s", ref)
		}
		return target, nil
	}
	return nil, goprune.NewImporterError(importer, at(path), "unsupported $ref %s (local $defs and definitions only)", ref)
}

// mergeAllOf folds allOf branches into one schema: properties merge left to
// right with later branches overriding, and the first declared type wins.
func (c *converter) mergeAllOf(s map[string]any, path string, seen map[string]bool) (map[string]any, error) {
	branches, ok := s["allOf"].([]any)
	if !ok {
		return s, nil
	}
	merged := make(map[string]any, len(s))
	props := map[string]any{}
	for k, v := range s {
		if k != "allOf" && k != "properties" {
			merged[k] = v
		}
	}
	for i, raw := range branches {
		b, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		bpath := fmt.Sprintf("%s/allOf/%d", path, i)
		ref, isRef := b["$ref"].(string)
		if isRef {
			if !c.cfg.localRefs {
				return nil, goprune.NewImporterError(importer, bpath,
					"$ref is not supported; dereference the schema before importing")
			}
			if seen[ref] {
				return nil, goprune.NewImporterError(importer, bpath, "cyclic $ref %s", ref)
			}
			target, err := c.lookup(ref, bpath)
			if err != nil {
				return nil, err
			}
			seen[ref] = true
			b = target
		}
		b, err := c.mergeAllOf(b, bpath, seen)
		if err != nil {
			return nil, err
		}
		if isRef {
			// seen holds the refs on the current path only; siblings may share a base
			delete(seen, ref)
		}
		if _, has := merged["type"]; !has && b["type"] != nil {
			merged["type"] = b["type"]
		}
		if _, has := merged["items"]; !has && b["items"] != nil {
			merged["items"] = b["items"]
		}
		if bp, ok := b["properties"].(map[string]any); ok {
			for k, v := range bp {
				props[k] = v
			}
		}
	}
	if own, ok := s["properties"].(map[string]any); ok {
		for k, v := range own {
			props[k] = v
		}
	}
	if len(props) > 0 {
		merged["properties"] = props
	}
	return merged, nil
}

type alternative struct {
	schema any
	path   string
}

// firstAlternative picks the first anyOf/oneOf branch that is not purely
// null. A union of only null branches resolves to a null schema, as a type
// list of only "null" does.
func firstAlternative(s map[string]any) (alternative, bool) {
	for _, kw := range []string{"anyOf", "oneOf"} {
		branches, ok := s[kw].([]any)
		if !ok {
			continue
		}
		for i, b := range branches {
			if bm, ok := b.(map[string]any); ok && typeName(bm) == "null" {
				continue
			}
			return alternative{schema: b, path: fmt.Sprintf("/%s/%d", kw, i)}, true
		}
		return alternative{schema: map[string]any{"type": "null"}, path: "/" + kw}, true
	}
	return alternative{}, false
}

// typeName reads "type", which may be a string or a list of strings. For a
// list the first non-null entry wins; a list of only "null" is "null".
func typeName(s map[string]any) string {
	switch t := s["type"].(type) {
	case string:
		return t
	case []any:
		sawNull := false
		for _, e := range t {
			name, _ := e.(string)
			if name == "null" {
				sawNull = true
				continue
			}
			if name != "" {
				return name
			}
		}
		if sawNull {
			return "null"
		}
	}
	return ""
}

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

func escape(s string) string   { return pointerEscaper.Replace(s) }
func unescape(s string) string { return pointerUnescaper.Replace(s) }

func at(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
