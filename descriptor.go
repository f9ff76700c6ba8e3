package goprune

import (
	"sort"
	"strings"
)

// Type tags the runtime kind of a value or the kind a descriptor expects.
type Type int

const (
	TypeNull Type = iota
	TypeString
	TypeNumber
	TypeBoolean
	TypeObject
	TypeArray
	TypeOther // functions, channels, structs and other non-plain data
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	default:
		return "other"
	}
}

// Descriptor is one node of a map descriptor. The set of implementations is
// closed: the primitive tags, Null, Shape and List.
type Descriptor interface {
	// Type is the value kind this node accepts.
	Type() Type
	String() string
	descriptor()
}

// Tag is a primitive descriptor. An Object or Array tag accepts the whole
// subtree without inspecting it.
type Tag struct{ t Type }

func (g Tag) Type() Type     { return g.t }
func (g Tag) String() string { return g.t.String() }
func (Tag) descriptor()      {}

// Primitive tags.
var (
	String  Descriptor = Tag{TypeString}
	Number  Descriptor = Tag{TypeNumber}
	Boolean Descriptor = Tag{TypeBoolean}
	Object  Descriptor = Tag{TypeObject}
	Array   Descriptor = Tag{TypeArray}

	// Null accepts only a null value.
	Null Descriptor = Tag{TypeNull}
)

// Shape describes an object: each key maps to the descriptor of its value.
type Shape map[string]Descriptor

func (Shape) Type() Type  { return TypeObject }
func (Shape) descriptor() {}

func (s Shape) String() string {
	keys := s.Keys()
	b := &strings.Builder{}
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(describe(s[k]))
	}
	b.WriteByte('}')
	return b.String()
}

// Keys returns the declared keys in sorted order.
func (s Shape) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// List describes an array. Element i is checked against List[i] when the
// list is long enough and against List[0] otherwise.
type List []Descriptor

func (List) Type() Type  { return TypeArray }
func (List) descriptor() {}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, d := range l {
		parts[i] = describe(d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ArrayOf returns the single-element List whose entries all match elem.
func ArrayOf(elem Descriptor) List { return List{elem} }

// At returns the descriptor that applies to element i, or nil when the list
// declares no elements.
func (l List) At(i int) Descriptor {
	if len(l) == 0 {
		return nil
	}
	if i < len(l) {
		return l[i]
	}
	return l[0]
}

// Declared counts the keys or elements a descriptor declares. Tags and nil
// declare none.
func Declared(d Descriptor) int {
	switch v := d.(type) {
	case Shape:
		return len(v)
	case List:
		return len(v)
	default:
		return 0
	}
}

func describe(d Descriptor) string {
	if d == nil {
		return "undefined"
	}
	return d.String()
}
