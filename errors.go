package goprune

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes.
const (
	CodeInvalidRoot  = "invalid_root"
	CodeInvalidMap   = "invalid_map"
	CodeUnknownKey   = "unknown_key"
	CodeInvalidType  = "invalid_type"
	CodeNullValue    = "null_value"
	CodeMaterialized = "materialized"
	CodeParseError   = "parse_error"
	CodeDuplicateKey = "duplicate_key"
	CodeTruncated    = "truncated"
)

// Sentinels for errors.Is.
var (
	ErrInvalidRoot   = errors.New("goprune: invalid root")
	ErrInvalidMap    = errors.New("goprune: invalid map")
	ErrAlienKey      = errors.New("goprune: alien key")
	ErrImporterParse = errors.New("goprune: importer parse error")
)

// Issue is a single report entry.
type Issue struct {
	Path    string `json:"path"` // JSON Pointer (for example: /items/2/price).
	Code    string `json:"code"`
	Message string `json:"message"`
	// Expected and Got carry the descriptor and value kinds for invalid_type.
	Expected string `json:"expected,omitempty"`
	Got      string `json:"got,omitempty"`
}

// Issues is a collection of report entries that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", iss[i].Code, iss[i].Path)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// Count returns how many issues carry the given code.
func (iss Issues) Count(code string) int {
	n := 0
	for _, it := range iss {
		if it.Code == code {
			n++
		}
	}
	return n
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// InvalidRootError is returned when the input is null and AllowNullish is off.
type InvalidRootError struct{}

func (*InvalidRootError) Error() string        { return "goprune: input is null or undefined" }
func (*InvalidRootError) Is(target error) bool { return target == ErrInvalidRoot }

// InvalidMapError is returned when the map is absent and PermitUndefinedMap is
// off.
type InvalidMapError struct{}

func (*InvalidMapError) Error() string        { return "goprune: map is undefined" }
func (*InvalidMapError) Is(target error) bool { return target == ErrInvalidMap }

// AlienKeyError reports a key (or array index) the map does not declare while
// ThrowErrorOnAlien is set.
type AlienKeyError struct {
	Path string // JSON Pointer of the offending member
	Key  string
}

func (e *AlienKeyError) Error() string {
	return fmt.Sprintf("goprune: key %q at %s is not declared in the map", e.Key, e.Path)
}
func (*AlienKeyError) Is(target error) bool { return target == ErrAlienKey }

// ImporterParseError is returned by the shape importers when their source is
// malformed or uses an unsupported construct.
type ImporterParseError struct {
	Importer string // "jsonschema", "interface", "openapi", "map"
	Path     string // location inside the source, when known
	Msg      string
	Err      error
}

func (e *ImporterParseError) Error() string {
	b := &strings.Builder{}
	b.WriteString("goprune: ")
	b.WriteString(e.Importer)
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ImporterParseError) Unwrap() error        { return e.Err }
func (*ImporterParseError) Is(target error) bool { return target == ErrImporterParse }

// NewImporterError builds an ImporterParseError with a formatted message.
func NewImporterError(importer, path, format string, args ...any) *ImporterParseError {
	return &ImporterParseError{Importer: importer, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// ErrorCode maps an error returned by this module to an issue code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRoot):
		return CodeInvalidRoot
	case errors.Is(err, ErrInvalidMap):
		return CodeInvalidMap
	case errors.Is(err, ErrAlienKey):
		return CodeUnknownKey
	}
	if iss, ok := AsIssues(err); ok && len(iss) > 0 {
		return iss[0].Code
	}
	return CodeParseError
}

// ToIssues converts any error into Issues so transports can render one
// payload shape.
func ToIssues(err error) Issues {
	if err == nil {
		return nil
	}
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	it := Issue{Path: "/", Code: ErrorCode(err), Message: err.Error()}
	var ak *AlienKeyError
	if errors.As(err, &ak) {
		it.Path = ak.Path
	}
	var ip *ImporterParseError
	if errors.As(err, &ip) && ip.Path != "" {
		it.Path = ip.Path
	}
	return AppendIssues(nil, it)
}
