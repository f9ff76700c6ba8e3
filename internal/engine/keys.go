package engine

// KeyTracker tells drivers built on delimiter/string token streams (such as
// encoding/json's Decoder.Token) whether a string is an object key or a
// value.
type KeyTracker struct {
	stack []keyFrame
}

type keyFrame struct {
	object       bool
	expectingKey bool
}

// Delim records a structural delimiter and returns its token kind.
func (t *KeyTracker) Delim(d rune) Kind {
	switch d {
	case '{':
		t.stack = append(t.stack, keyFrame{object: true, expectingKey: true})
		return KindBeginObject
	case '[':
		t.stack = append(t.stack, keyFrame{})
		return KindBeginArray
	case '}':
		t.pop()
		return KindEndObject
	default:
		t.pop()
		return KindEndArray
	}
}

// Text classifies a string token as a key or a string value.
func (t *KeyTracker) Text() Kind {
	if n := len(t.stack); n > 0 {
		top := &t.stack[n-1]
		if top.object && top.expectingKey {
			top.expectingKey = false
			return KindKey
		}
	}
	t.Value()
	return KindString
}

// Value records a completed scalar value.
func (t *KeyTracker) Value() {
	if n := len(t.stack); n > 0 {
		top := &t.stack[n-1]
		if top.object {
			top.expectingKey = true
		}
	}
}

func (t *KeyTracker) pop() {
	if n := len(t.stack); n > 0 {
		t.stack = t.stack[:n-1]
	}
	// a closed container completes the parent's value
	t.Value()
}
