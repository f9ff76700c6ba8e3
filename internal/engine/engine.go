package engine

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// NumberMode selects the Go type numbers decode into.
type NumberMode int

const (
	NumbersAsJSONNumber NumberMode = iota
	NumbersAsFloat64
)

// ErrTrailingData is returned when a document has tokens after its first
// value.
var ErrTrailingData = errors.New("trailing data after top-level value")

type decoder struct {
	src  TokenSource
	mode NumberMode
}

// Decode builds a plain value (map[string]any, []any, scalars) from exactly
// one document in src.
func Decode(src TokenSource, mode NumberMode) (any, error) {
	v, err := DecodeNext(src, mode)
	if err != nil {
		return nil, err
	}
	if _, err := src.NextToken(); err == nil {
		return nil, ErrTrailingData
	} else if err != io.EOF {
		return nil, err
	}
	return v, nil
}

// DecodeNext decodes the next value from src, leaving the rest of the stream
// unread. It returns io.EOF when the stream is exhausted.
func DecodeNext(src TokenSource, mode NumberMode) (any, error) {
	d := decoder{src: src, mode: mode}
	tok, err := src.NextToken()
	if err != nil {
		return nil, err
	}
	return d.value(tok)
}

func (d decoder) value(tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return d.object()
	case KindBeginArray:
		return d.array()
	case KindString:
		return tok.String, nil
	case KindNumber:
		return d.number(tok.Number)
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}

func (d decoder) number(s string) (any, error) {
	if d.mode == NumbersAsFloat64 {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return json.Number(s), nil
}

func (d decoder) object() (any, error) {
	m := make(map[string]any)
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		vt, err := d.next()
		if err != nil {
			return nil, err
		}
		v, err := d.value(vt)
		if err != nil {
			return nil, err
		}
		m[tok.String] = v
	}
}

func (d decoder) array() (any, error) {
	arr := []any{}
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := d.value(tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

// next reads inside a container, where EOF means the input was cut short.
func (d decoder) next() (Token, error) {
	tok, err := d.src.NextToken()
	if err == io.EOF {
		return Token{}, io.ErrUnexpectedEOF
	}
	return tok, err
}
