package tsiface

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	goprune "github.com/reoring/goprune"
)

type resolver struct {
	src      []byte
	order    []string
	decls    map[string][]*sitter.Node
	memo     map[string]goprune.Descriptor
	visiting map[string]bool
}

func newResolver(src []byte) *resolver {
	return &resolver{
		src:      src,
		decls:    map[string][]*sitter.Node{},
		memo:     map[string]goprune.Descriptor{},
		visiting: map[string]bool{},
	}
}

func (r *resolver) text(n *sitter.Node) string { return n.Content(r.src) }

// collect records every interface and type alias declaration in the tree,
// wherever it is nested. Interfaces declared more than once merge.
func (r *resolver) collect(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "interface_declaration", "type_alias_declaration":
			if nameNode := c.ChildByFieldName("name"); nameNode != nil {
				name := r.text(nameNode)
				if _, seen := r.decls[name]; !seen {
					r.order = append(r.order, name)
				}
				r.decls[name] = append(r.decls[name], c)
			}
		}
		r.collect(c)
	}
}

func (r *resolver) resolve(name string) (goprune.Descriptor, error) {
	if d, ok := r.memo[name]; ok {
		return d, nil
	}
	path := "/" + escape(name)
	if r.visiting[name] {
		return nil, goprune.NewImporterError(importer, path, "cyclic reference to %s", name)
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	var (
		alias  goprune.Descriptor
		open   bool
		merged = goprune.Shape{}
	)
	for _, n := range r.decls[name] {
		if n.Type() == "type_alias_declaration" {
			d, err := r.typeNode(n.ChildByFieldName("value"), path)
			if err != nil {
				return nil, err
			}
			alias = d
			continue
		}
		fields, isOpen, err := r.interfaceDecl(n, path)
		if err != nil {
			return nil, err
		}
		open = open || isOpen
		for k, v := range fields {
			merged[k] = v
		}
	}

	var d goprune.Descriptor = merged
	switch {
	case alias != nil:
		d = alias
	case open:
		d = goprune.Object
	}
	r.memo[name] = d
	return d, nil
}

// interfaceDecl returns the fields of one interface declaration. Base
// interfaces contribute their fields first so the derived ones override.
func (r *resolver) interfaceDecl(n *sitter.Node, path string) (goprune.Shape, bool, error) {
	fields := goprune.Shape{}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if t := clause.Type(); t != "extends_type_clause" && t != "extends_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			base := r.typeName(clause.NamedChild(j))
			if _, declared := r.decls[base]; !declared {
				continue
			}
			d, err := r.resolve(base)
			if err != nil {
				return nil, false, err
			}
			if s, ok := d.(goprune.Shape); ok {
				for k, v := range s {
					fields[k] = v
				}
			}
		}
	}
	own, open, err := r.members(n.ChildByFieldName("body"), path)
	if err != nil || open {
		return nil, open, err
	}
	for k, v := range own {
		fields[k] = v
	}
	return fields, false, nil
}

// members reads the property signatures of an interface body or object
// type. An index signature makes the whole type open.
func (r *resolver) members(body *sitter.Node, path string) (goprune.Shape, bool, error) {
	out := goprune.Shape{}
	if body == nil {
		return out, false, nil
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		switch m.Type() {
		case "index_signature":
			return nil, true, nil
		case "property_signature":
			key, ok := r.propertyName(m.ChildByFieldName("name"))
			if !ok {
				continue
			}
			d, err := r.annotation(m.ChildByFieldName("type"), path+"/"+escape(key))
			if err != nil {
				return nil, false, err
			}
			out[key] = d
		}
	}
	return out, false, nil
}

func (r *resolver) propertyName(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "property_identifier", "private_property_identifier", "number":
		return r.text(n), true
	case "string":
		return unquote(r.text(n)), true
	}
	return "", false
}

func (r *resolver) annotation(n *sitter.Node, path string) (goprune.Descriptor, error) {
	if n == nil {
		return goprune.Object, nil
	}
	if n.Type() == "type_annotation" || n.Type() == "opting_type_annotation" {
		if n.NamedChildCount() == 0 {
			return goprune.Object, nil
		}
		n = n.NamedChild(0)
	}
	return r.typeNode(n, path)
}

func (r *resolver) typeNode(n *sitter.Node, path string) (goprune.Descriptor, error) {
	if n == nil {
		return goprune.Object, nil
	}
	switch n.Type() {
	case "predefined_type":
		switch r.text(n) {
		case "string":
			return goprune.String, nil
		case "number":
			return goprune.Number, nil
		case "boolean":
			return goprune.Boolean, nil
		case "undefined", "null":
			return goprune.Null, nil
		}
		return goprune.Object, nil
	case "null", "undefined":
		return goprune.Null, nil
	case "literal_type":
		return r.literal(n), nil
	case "type_identifier":
		return r.reference(r.text(n))
	case "generic_type":
		name := r.text(n.ChildByFieldName("name"))
		if name == "Array" || name == "ReadonlyArray" {
			args := n.ChildByFieldName("type_arguments")
			if args == nil || args.NamedChildCount() == 0 {
				return goprune.Array, nil
			}
			elem, err := r.typeNode(args.NamedChild(0), path+"/0")
			if err != nil {
				return nil, err
			}
			return goprune.ArrayOf(elem), nil
		}
		return r.reference(name)
	case "array_type":
		elem, err := r.typeNode(n.NamedChild(0), path+"/0")
		if err != nil {
			return nil, err
		}
		return goprune.ArrayOf(elem), nil
	case "tuple_type":
		out := goprune.List{}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			elem, err := r.typeNode(n.NamedChild(i), path+"/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		if len(out) == 0 {
			return goprune.Array, nil
		}
		return out, nil
	case "parenthesized_type", "readonly_type":
		return r.typeNode(n.NamedChild(0), path)
	case "union_type":
		for _, member := range r.flattenUnion(n, nil) {
			if r.nullish(member) {
				continue
			}
			return r.typeNode(member, path)
		}
		return goprune.Object, nil
	case "object_type":
		fields, open, err := r.members(n, path)
		if err != nil {
			return nil, err
		}
		if open {
			return goprune.Object, nil
		}
		return fields, nil
	}
	// intersections, functions, conditional and mapped types
	return goprune.Object, nil
}

// reference resolves a named type. Unknown names are Object, and so is a
// declaration that resolves to an empty Shape.
func (r *resolver) reference(name string) (goprune.Descriptor, error) {
	if _, declared := r.decls[name]; !declared {
		return goprune.Object, nil
	}
	d, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	if s, ok := d.(goprune.Shape); ok && len(s) == 0 {
		return goprune.Object, nil
	}
	return d, nil
}

func (r *resolver) typeName(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Type() == "generic_type" {
		return r.text(n.ChildByFieldName("name"))
	}
	return r.text(n)
}

func (r *resolver) flattenUnion(n *sitter.Node, acc []*sitter.Node) []*sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "union_type" {
			acc = r.flattenUnion(c, acc)
			continue
		}
		acc = append(acc, c)
	}
	return acc
}

func (r *resolver) nullish(n *sitter.Node) bool {
	switch n.Type() {
	case "null", "undefined":
		return true
	case "predefined_type", "literal_type":
		t := strings.TrimSpace(r.text(n))
		return t == "null" || t == "undefined"
	}
	return false
}

// literal maps a literal type to its primitive family.
func (r *resolver) literal(n *sitter.Node) goprune.Descriptor {
	if n.NamedChildCount() == 0 {
		return goprune.Object
	}
	switch n.NamedChild(0).Type() {
	case "string", "template_string":
		return goprune.String
	case "number", "unary_expression":
		return goprune.Number
	case "true", "false":
		return goprune.Boolean
	case "null", "undefined":
		return goprune.Null
	}
	return goprune.Object
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		if v, err := strconv.Unquote(`"` + s[1:len(s)-1] + `"`); err == nil {
			return v
		}
		return s[1 : len(s)-1]
	}
	return s
}
