package engine

import (
	"strconv"
	"strings"
)

// Enforcement wrapper for TokenSource: duplicate keys, nesting depth and
// consumed bytes are checked while tokens stream through.

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// Issue codes produced by the enforcing source.
const (
	CodeParseError   = "parse_error"
	CodeDuplicateKey = "duplicate_key"
	CodeTruncated    = "truncated"
)

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
}

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// IssueSink receives every issue, including warnings that do not stop
	// decoding. Nil drops warnings.
	IssueSink func(SimpleIssue)
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// WrapWithEnforcement returns a TokenSource that enforces duplicate key policy,
// maximum nesting depth, and maximum consumed bytes. Options that are all
// zero return inner unchanged.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	if opt.OnDuplicate == DupIgnore && opt.MaxDepth <= 0 && opt.MaxBytes <= 0 {
		return inner
	}
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type frame struct {
	object     bool
	keys       map[string]struct{}
	path       string
	nextIndex  int
	pendingKey string
	haveKey    bool
}

type enforcingTokenSource struct {
	inner TokenSource
	opt   EnforceOptions
	stack []frame
}

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		path := e.valuePath()
		e.stack = append(e.stack, frame{
			object: tok.Kind == KindBeginObject,
			keys:   map[string]struct{}{},
			path:   path,
		})
		if e.opt.MaxDepth > 0 && len(e.stack) > e.opt.MaxDepth {
			return Token{}, e.fail(SimpleIssue{Code: CodeParseError, Path: rooted(path), Message: "max depth exceeded"})
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
		e.valueDone()
	case KindKey:
		if n := len(e.stack); n > 0 && e.stack[n-1].object {
			top := &e.stack[n-1]
			if _, dup := top.keys[tok.String]; dup && e.opt.OnDuplicate != DupIgnore {
				si := SimpleIssue{
					Code:    CodeDuplicateKey,
					Path:    rooted(joinJSONPointer(top.path, tok.String)),
					Message: "key '" + tok.String + "' duplicated",
				}
				if e.opt.OnDuplicate == DupError {
					return Token{}, e.fail(si)
				}
				e.warn(si)
			}
			top.keys[tok.String] = struct{}{}
			top.pendingKey = tok.String
			top.haveKey = true
		}
	default:
		e.valuePath()
		e.valueDone()
	}

	if e.opt.MaxBytes > 0 {
		if off := e.Location(); off > e.opt.MaxBytes {
			return Token{}, e.fail(SimpleIssue{Code: CodeTruncated, Path: rooted(e.currentPath()), Message: "max bytes exceeded"})
		}
	}
	return tok, nil
}

func (e *enforcingTokenSource) Location() int64 { return e.inner.Location() }

// valuePath returns the pointer of the value that starts now and advances
// the array index of the enclosing frame.
func (e *enforcingTokenSource) valuePath() string {
	n := len(e.stack)
	if n == 0 {
		return ""
	}
	top := &e.stack[n-1]
	if top.object {
		return joinJSONPointer(top.path, top.pendingKey)
	}
	p := joinJSONPointer(top.path, strconv.Itoa(top.nextIndex))
	top.nextIndex++
	return p
}

func (e *enforcingTokenSource) valueDone() {
	if n := len(e.stack); n > 0 && e.stack[n-1].object {
		e.stack[n-1].haveKey = false
		e.stack[n-1].pendingKey = ""
	}
}

func (e *enforcingTokenSource) currentPath() string {
	n := len(e.stack)
	if n == 0 {
		return ""
	}
	top := e.stack[n-1]
	if top.object && top.haveKey {
		return joinJSONPointer(top.path, top.pendingKey)
	}
	return top.path
}

func (e *enforcingTokenSource) warn(si SimpleIssue) {
	if e.opt.IssueSink != nil {
		e.opt.IssueSink(si)
	}
}

func (e *enforcingTokenSource) fail(si SimpleIssue) error {
	e.warn(si)
	return IssueError{si}
}

func rooted(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var jsonPointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinJSONPointer(base, token string) string {
	return base + "/" + jsonPointerEscaper.Replace(token)
}
