// Package tsiface builds map descriptors from TypeScript interface and type
// alias declarations.
//
// Source text is parsed with tree-sitter, so any syntactically valid
// TypeScript file can be fed in directly; declarations other than
// interfaces and type aliases are ignored.
package tsiface

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	goprune "github.com/reoring/goprune"
)

const importer = "tsiface"

// Set holds the resolved declarations of one source in declaration order.
type Set struct {
	names []string
	maps  map[string]goprune.Descriptor
}

// Names lists the declared type names in source order.
func (s *Set) Names() []string { return append([]string(nil), s.names...) }

// Lookup returns the descriptor of one declaration.
func (s *Set) Lookup(name string) (goprune.Descriptor, bool) {
	d, ok := s.maps[name]
	return d, ok
}

// Select picks the descriptor a caller asked for. With a name it is that
// declaration. Without one, a single declaration is returned as is and
// several are returned as a Shape keyed by name.
func (s *Set) Select(name string) (goprune.Descriptor, error) {
	if name != "" {
		d, ok := s.maps[name]
		if !ok {
			return nil, goprune.NewImporterError(importer, "", "interface %q not found; available: %s",
				name, strings.Join(s.names, ", "))
		}
		return d, nil
	}
	if len(s.names) == 1 {
		return s.maps[s.names[0]], nil
	}
	all := make(goprune.Shape, len(s.names))
	for _, n := range s.names {
		all[n] = s.maps[n]
	}
	return all, nil
}

// Parse reads TypeScript source and resolves every interface and type alias
// it declares. References between declarations may point forward; a cycle
// is an error.
func Parse(ctx context.Context, source string) (*Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := []byte(source)
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &goprune.ImporterParseError{Importer: importer, Msg: "parse failed", Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, src)
	}

	r := newResolver(src)
	r.collect(root)
	if len(r.order) == 0 {
		return nil, goprune.NewImporterError(importer, "", "no interfaces found in source")
	}
	set := &Set{names: r.order, maps: make(map[string]goprune.Descriptor, len(r.order))}
	for _, name := range r.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := r.resolve(name)
		if err != nil {
			return nil, err
		}
		set.maps[name] = d
	}
	return set, nil
}

// ParseToMap parses source and selects the named declaration (see Set.Select).
func ParseToMap(ctx context.Context, source, name string) (goprune.Descriptor, error) {
	set, err := Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	return set.Select(name)
}

// Reduce builds a map from source and prunes input against it.
func Reduce(ctx context.Context, input any, source, name string, opts ...goprune.Options) (any, error) {
	m, err := ParseToMap(ctx, source, name)
	if err != nil {
		return nil, err
	}
	return goprune.Reduce(input, m, opts...)
}

func syntaxError(root *sitter.Node, src []byte) error {
	n := firstError(root)
	if n == nil {
		return goprune.NewImporterError(importer, "", "syntax error")
	}
	pos := n.StartPoint()
	snippet := n.Content(src)
	if len(snippet) > 32 {
		snippet = snippet[:32] + "..."
	}
	return goprune.NewImporterError(importer, "", "syntax error at line %d, column %d near %q",
		pos.Row+1, pos.Column+1, snippet)
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !c.HasError() && !c.IsMissing() {
			continue
		}
		if e := firstError(c); e != nil {
			return e
		}
	}
	return nil
}

func escape(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}
