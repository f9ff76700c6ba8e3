package engine

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource replays a fixed token list; Location reports the token index.
type sliceSource struct {
	toks []Token
	pos  int
}

func (s *sliceSource) NextToken() (Token, error) {
	if s.pos >= len(s.toks) {
		return Token{}, io.EOF
	}
	t := s.toks[s.pos]
	s.pos++
	return t, nil
}

func (s *sliceSource) Location() int64 { return int64(s.pos) }

func obj() Token           { return Token{Kind: KindBeginObject} }
func endObj() Token        { return Token{Kind: KindEndObject} }
func list() Token          { return Token{Kind: KindBeginArray} }
func endList() Token       { return Token{Kind: KindEndArray} }
func key(k string) Token   { return Token{Kind: KindKey, String: k} }
func str(v string) Token   { return Token{Kind: KindString, String: v} }
func num(n string) Token   { return Token{Kind: KindNumber, Number: n} }
func boolean(b bool) Token { return Token{Kind: KindBool, Bool: b} }
func null() Token          { return Token{Kind: KindNull} }

func src(t ...Token) *sliceSource { return &sliceSource{toks: t} }

func TestDecode(t *testing.T) {
	s := src(obj(), key("a"), list(), num("1"), str("x"), boolean(true), null(), endList(), key("b"), obj(), endObj(), endObj())
	v, err := Decode(s, NumbersAsJSONNumber)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": []any{json.Number("1"), "x", true, nil},
		"b": map[string]any{},
	}, v)
}

func TestDecode_Float64(t *testing.T) {
	v, err := Decode(src(list(), num("2.5"), endList()), NumbersAsFloat64)
	require.NoError(t, err)
	assert.Equal(t, []any{2.5}, v)

	_, err = Decode(src(num("nope")), NumbersAsFloat64)
	assert.Error(t, err)
}

func TestDecode_TrailingAndTruncated(t *testing.T) {
	_, err := Decode(src(num("1"), num("2")), NumbersAsJSONNumber)
	assert.ErrorIs(t, err, ErrTrailingData)

	_, err = Decode(src(obj(), key("a")), NumbersAsJSONNumber)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = Decode(src(obj(), str("not a key")), NumbersAsJSONNumber)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeNext_Sequence(t *testing.T) {
	s := src(num("1"), obj(), endObj())
	v, err := DecodeNext(s, NumbersAsJSONNumber)
	require.NoError(t, err)
	assert.Equal(t, json.Number("1"), v)
	v, err = DecodeNext(s, NumbersAsJSONNumber)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, v)
	_, err = DecodeNext(s, NumbersAsJSONNumber)
	assert.ErrorIs(t, err, io.EOF)
}

func TestEnforce_DuplicateKeys(t *testing.T) {
	toks := func() *sliceSource {
		return src(obj(), key("items"), list(), obj(), key("id"), num("1"), key("id"), num("2"), endObj(), endList(), endObj())
	}

	_, err := Decode(WrapWithEnforcement(toks(), EnforceOptions{OnDuplicate: DupError}), NumbersAsJSONNumber)
	var ie IssueError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, CodeDuplicateKey, ie.Code)
	assert.Equal(t, "/items/0/id", ie.Path)

	var warned []SimpleIssue
	v, err := Decode(WrapWithEnforcement(toks(), EnforceOptions{
		OnDuplicate: DupWarn,
		IssueSink:   func(si SimpleIssue) { warned = append(warned, si) },
	}), NumbersAsJSONNumber)
	require.NoError(t, err)
	require.Len(t, warned, 1)
	assert.Equal(t, "/items/0/id", warned[0].Path)
	assert.Equal(t, map[string]any{"items": []any{map[string]any{"id": json.Number("2")}}}, v)
}

func TestEnforce_SiblingKeysAreNotDuplicates(t *testing.T) {
	s := src(obj(), key("a"), obj(), key("x"), num("1"), endObj(), key("b"), obj(), key("x"), num("2"), endObj(), endObj())
	_, err := Decode(WrapWithEnforcement(s, EnforceOptions{OnDuplicate: DupError}), NumbersAsJSONNumber)
	assert.NoError(t, err)
}

func TestEnforce_MaxDepth(t *testing.T) {
	s := src(list(), list(), list(), endList(), endList(), endList())
	_, err := Decode(WrapWithEnforcement(s, EnforceOptions{MaxDepth: 2}), NumbersAsJSONNumber)
	var ie IssueError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, CodeParseError, ie.Code)
	assert.Equal(t, "/0/0", ie.Path)
}

func TestEnforce_MaxBytes(t *testing.T) {
	s := src(list(), num("1"), num("2"), num("3"), endList())
	_, err := Decode(WrapWithEnforcement(s, EnforceOptions{MaxBytes: 2}), NumbersAsJSONNumber)
	var ie IssueError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, CodeTruncated, ie.Code)
}

func TestEnforce_DisabledReturnsInner(t *testing.T) {
	s := src()
	assert.Same(t, s, WrapWithEnforcement(s, EnforceOptions{}))
}

func TestJoinJSONPointer_Escapes(t *testing.T) {
	assert.Equal(t, "/a~1b/c~0d", joinJSONPointer(joinJSONPointer("", "a/b"), "c~d"))
}

func TestKeyTracker(t *testing.T) {
	var kt KeyTracker
	got := []Kind{
		kt.Delim('{'),
		kt.Text(), // key
		kt.Text(), // value
		kt.Text(), // key
		kt.Delim('['),
		kt.Text(),
		kt.Delim(']'),
		kt.Text(), // key again after container value
		kt.Delim('}'),
	}
	want := []Kind{KindBeginObject, KindKey, KindString, KindKey, KindBeginArray, KindString, KindEndArray, KindKey, KindEndObject}
	assert.Equal(t, want, got)
}
