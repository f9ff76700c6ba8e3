package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/jsonschema"
	"github.com/reoring/goprune/middleware"
	"github.com/reoring/goprune/tsiface"
)

// envelope is a decoded request body: {"input": ..., "options": {...}} plus
// the fields that describe the map.
type envelope map[string]any

type mapSource func(ctx context.Context, env envelope) (goprune.Descriptor, error)

// badRequest marks envelope problems that are the caller's fault before any
// map is built.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func (s *Server) handle(route string, source mapSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		env, err := s.readEnvelope(r)
		if err != nil {
			s.fail(w, r, route, middleware.Status(err), err, start)
			return
		}
		opt, err := goprune.DecodeOptions(asMap(env["options"]))
		if err != nil {
			s.fail(w, r, route, http.StatusBadRequest, err, start)
			return
		}
		m, err := source(ctx, env)
		if err != nil {
			status := http.StatusUnprocessableEntity
			if _, ok := err.(*badRequest); ok {
				status = http.StatusBadRequest
			}
			s.fail(w, r, route, status, err, start)
			return
		}
		out, report, err := goprune.ReduceWithReport(env["input"], m, opt)
		if err != nil {
			s.fail(w, r, route, http.StatusUnprocessableEntity, err, start)
			return
		}
		s.finish(w, r, route, http.StatusOK, map[string]any{"result": out, "report": nonNil(report)}, report, start)
	}
}

func (s *Server) readEnvelope(r *http.Request) (envelope, error) {
	limit := s.cfg.Decode.MaxBytes
	var reader io.Reader = r.Body
	if limit > 0 {
		reader = io.LimitReader(r.Body, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, goprune.Issues{{Path: "/", Code: goprune.CodeTruncated, Message: "max bytes exceeded"}}
	}
	doc, _, err := goprune.DecodeJSONBytes(r.Context(), data, s.cfg.Decode)
	if err != nil {
		return nil, err
	}
	env, ok := doc.(map[string]any)
	if !ok {
		return nil, &badRequest{msg: "request body must be a JSON object"}
	}
	return env, nil
}

func (s *Server) mapFromEnvelope(_ context.Context, env envelope) (goprune.Descriptor, error) {
	raw, ok := env["map"]
	if !ok {
		return nil, &badRequest{msg: `missing "map"`}
	}
	return goprune.ParseMapValue(raw)
}

func (s *Server) mapFromSchema(_ context.Context, env envelope) (goprune.Descriptor, error) {
	schema, ok := env["schema"].(map[string]any)
	if !ok {
		return nil, &badRequest{msg: `"schema" must be an object`}
	}
	var opts []jsonschema.Option
	if local, _ := env["localRefs"].(bool); local {
		opts = append(opts, jsonschema.WithLocalRefs())
	}
	return jsonschema.FromMap(schema, opts...)
}

func (s *Server) mapFromInterface(ctx context.Context, env envelope) (goprune.Descriptor, error) {
	source, ok := env["source"].(string)
	if !ok {
		return nil, &badRequest{msg: `"source" must be a string`}
	}
	name, _ := env["name"].(string)
	return tsiface.ParseToMap(ctx, source, name)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, route string, status int, err error, start time.Time) {
	payload := middleware.Payload(err)
	if br, ok := err.(*badRequest); ok {
		payload = middleware.ErrorPayload(goprune.Issues{{Path: "/", Code: goprune.CodeParseError, Message: br.msg}})
	}
	s.log.Warn("request rejected",
		zap.String("route", route),
		zap.Int("status", status),
		zap.String("code", goprune.ErrorCode(err)),
		zap.String("request_id", chimw.GetReqID(r.Context())),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	s.metrics.observe(route, status, nil)
	middleware.WriteJSON(w, status, payload)
}

func (s *Server) finish(w http.ResponseWriter, r *http.Request, route string, status int, body any, report goprune.Issues, start time.Time) {
	fields := []zap.Field{
		zap.String("route", route),
		zap.Int("status", status),
		zap.String("request_id", chimw.GetReqID(r.Context())),
		zap.Duration("elapsed", time.Since(start)),
	}
	for _, code := range []string{goprune.CodeUnknownKey, goprune.CodeInvalidType, goprune.CodeNullValue, goprune.CodeMaterialized} {
		if n := report.Count(code); n > 0 {
			fields = append(fields, zap.Int(code, n))
		}
	}
	s.log.Info("reduced", fields...)
	s.metrics.observe(route, status, report)
	middleware.WriteJSON(w, status, body)
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func nonNil(iss goprune.Issues) goprune.Issues {
	if iss == nil {
		return goprune.Issues{}
	}
	return iss
}
