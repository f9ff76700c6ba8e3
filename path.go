package goprune

import (
	"strconv"
	"strings"
)

// pointer is a JSON Pointer under construction. The empty pointer is the
// document root.
type pointer string

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// Field appends an object member, escaping '~' and '/' per RFC 6901.
func (p pointer) Field(name string) pointer {
	return p + "/" + pointer(pointerEscaper.Replace(name))
}

func (p pointer) Index(i int) pointer { return p + "/" + pointer(strconv.Itoa(i)) }

// String renders the pointer; the root renders as "/".
func (p pointer) String() string {
	if p == "" {
		return "/"
	}
	return string(p)
}
