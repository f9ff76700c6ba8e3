package goprune

import (
	"context"
	"errors"
	"io"

	eng "github.com/reoring/goprune/internal/engine"
)

// DecodeJSON builds a plain value from one JSON document read from src,
// enforcing the duplicate-key, depth and size limits of opt. Warnings for
// duplicate keys under Warn are returned alongside the value; fatal problems
// are returned as Issues.
func DecodeJSON(ctx context.Context, src Source, opt DecodeOpt) (any, Issues, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	var warnings Issues
	enforced := eng.WrapWithEnforcement(engineSource(src), eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		IssueSink: func(si eng.SimpleIssue) {
			if si.Code == eng.CodeDuplicateKey && opt.OnDuplicateKey == Warn {
				warnings = AppendIssues(warnings, Issue{Path: si.Path, Code: si.Code, Message: si.Message})
			}
		},
	})
	mode := eng.NumbersAsJSONNumber
	if opt.NumberMode == NumberFloat64 {
		mode = eng.NumbersAsFloat64
	}
	v, err := eng.Decode(enforced, mode)
	if err != nil {
		return nil, warnings, toIssues(err)
	}
	return v, warnings, nil
}

// ReduceJSON decodes untrusted JSON with the limits of dopt and reduces it
// against m. The returned Issues hold decode warnings followed by the
// reduction report.
func ReduceJSON(ctx context.Context, data []byte, m Descriptor, dopt DecodeOpt, opts ...Options) (any, Issues, error) {
	if dopt.MaxBytes > 0 && int64(len(data)) > dopt.MaxBytes {
		return nil, nil, singleIssue(CodeTruncated, "max bytes exceeded")
	}
	return reduceSource(ctx, driverFor(dopt).NewBytes(data), m, dopt, opts)
}

// ReduceReader is ReduceJSON for a stream. When MaxBytes is set at most
// MaxBytes+1 bytes are read.
func ReduceReader(ctx context.Context, r io.Reader, m Descriptor, dopt DecodeOpt, opts ...Options) (any, Issues, error) {
	if dopt.MaxBytes > 0 {
		data, err := io.ReadAll(io.LimitReader(r, dopt.MaxBytes+1))
		if err != nil {
			return nil, nil, singleIssue(CodeParseError, err.Error())
		}
		return ReduceJSON(ctx, data, m, dopt, opts...)
	}
	return reduceSource(ctx, driverFor(dopt).NewReader(r), m, dopt, opts)
}

func reduceSource(ctx context.Context, src Source, m Descriptor, dopt DecodeOpt, opts []Options) (any, Issues, error) {
	v, warnings, err := DecodeJSON(ctx, src, dopt)
	if err != nil {
		return nil, warnings, err
	}
	out, report, err := ReduceWithReport(v, m, opts...)
	if len(warnings) > 0 {
		report = append(warnings, report...)
	}
	return out, report, err
}

func driverFor(opt DecodeOpt) JSONDriver {
	if opt.Driver != nil {
		return opt.Driver
	}
	return CurrentJSONDriver()
}

// DecodeJSONBytes is DecodeJSON over an in-memory document.
func DecodeJSONBytes(ctx context.Context, data []byte, opt DecodeOpt) (any, Issues, error) {
	return DecodeJSON(ctx, driverFor(opt).NewBytes(data), opt)
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Error:
		return eng.DupError
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupIgnore
	}
}

func toIssues(err error) Issues {
	if err == nil {
		return nil
	}
	if ii, ok := AsIssues(err); ok {
		return ii
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return AppendIssues(nil, Issue{Code: ie.Code, Path: ie.Path, Message: ie.Message})
	}
	return AppendIssues(nil, Issue{Path: "/", Code: CodeParseError, Message: err.Error()})
}

func singleIssue(code, msg string) Issues {
	return AppendIssues(nil, Issue{Path: "/", Code: code, Message: msg})
}
