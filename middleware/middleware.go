// Package middleware prunes JSON request bodies against a map descriptor
// before they reach a handler.
package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	goprune "github.com/reoring/goprune"
)

// Result is the outcome of pruning one request body.
type Result struct {
	Value  any
	Report goprune.Issues
}

type ctxKeyResult struct{}

// ContextWithResult attaches a Result to the context.
func ContextWithResult(ctx context.Context, res Result) context.Context {
	return context.WithValue(ctx, ctxKeyResult{}, res)
}

// ResultFromContext retrieves the Result stored by the middleware.
func ResultFromContext(ctx context.Context) (Result, bool) {
	v, ok := ctx.Value(ctxKeyResult{}).(Result)
	return v, ok
}

// DefaultDecodeOpt is the recommended setting for HTTP JSON boundaries:
// duplicate keys are errors, nesting is capped at 64 and bodies at 1 MiB.
func DefaultDecodeOpt() goprune.DecodeOpt {
	opt := goprune.StrictDecodeOpt()
	opt.MaxDepth = 64
	opt.MaxBytes = 1 << 20
	return opt
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues []goprune.Issue) map[string]any {
	return map[string]any{"issues": issues}
}

// PruneRequest reads and prunes the body of r. It returns the result and the
// pruned document re-encoded as JSON. A request without a body prunes as
// an empty object.
func PruneRequest(r *http.Request, m goprune.Descriptor, dopt goprune.DecodeOpt, opts ...goprune.Options) (Result, []byte, error) {
	body := r.Body
	if body == nil || body == http.NoBody {
		body = io.NopCloser(bytes.NewReader([]byte("{}")))
	}
	defer body.Close()

	v, report, err := goprune.ReduceReader(r.Context(), body, m, dopt, opts...)
	if err != nil {
		return Result{Report: report}, nil, err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return Result{}, nil, err
	}
	return Result{Value: v, Report: report}, out, nil
}

// ReplaceBody swaps the request body for data and fixes Content-Length.
func ReplaceBody(r *http.Request, data []byte) {
	r.Body = io.NopCloser(bytes.NewReader(data))
	r.ContentLength = int64(len(data))
	r.Header.Set("Content-Length", strconv.Itoa(len(data)))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// Status maps a pruning error to an HTTP status: oversized bodies are 413,
// everything else the caller sent is 400.
func Status(err error) int {
	if iss, ok := goprune.AsIssues(err); ok && iss.Count(goprune.CodeTruncated) > 0 {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

// Payload renders a pruning error as a response body.
func Payload(err error) map[string]any {
	if iss, ok := goprune.AsIssues(err); ok {
		return ErrorPayload(iss)
	}
	return ErrorPayload(goprune.ToIssues(err))
}

// PruneJSONBody returns net/http middleware that replaces the request body
// with its pruned form and stores the Result in the request context. A zero
// dopt selects DefaultDecodeOpt.
func PruneJSONBody(m goprune.Descriptor, dopt goprune.DecodeOpt, opts ...goprune.Options) func(http.Handler) http.Handler {
	if dopt == (goprune.DecodeOpt{}) {
		dopt = DefaultDecodeOpt()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, out, err := PruneRequest(r, m, dopt, opts...)
			if err != nil {
				WriteJSON(w, Status(err), Payload(err))
				return
			}
			ReplaceBody(r, out)
			next.ServeHTTP(w, r.WithContext(ContextWithResult(r.Context(), res)))
		})
	}
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
