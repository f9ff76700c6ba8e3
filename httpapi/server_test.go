package httpapi_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/httpapi"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type response struct {
	Result any             `json:"result"`
	Report []goprune.Issue `json:"report"`
	Issues []goprune.Issue `json:"issues"`
}

func newServer(t *testing.T) *httpapi.Server {
	t.Helper()
	return httpapi.New(httpapi.DefaultConfig(), zap.NewNop(), prometheus.NewRegistry())
}

func post(t *testing.T, h http.Handler, path, body string) (int, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	var out response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestReduce(t *testing.T) {
	srv := newServer(t)
	h := srv.Handler()

	status, out := post(t, h, httpapi.RouteReduce, `{
		"input": {"name": "bmw", "engine": {"hp": 300, "secret": "x"}, "extra": true},
		"map": {"name": "string", "engine": {"hp": "number"}, "color": "string"},
		"options": {"keepKeys": true}
	}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{
		"name":   "bmw",
		"engine": map[string]any{"hp": float64(300)},
		"color":  nil,
	}, out.Result)
	codes := map[string]int{}
	for _, is := range out.Report {
		codes[is.Code]++
	}
	assert.Equal(t, map[string]int{goprune.CodeUnknownKey: 2, goprune.CodeMaterialized: 1}, codes)
}

func TestReduce_JSONSchemaAndInterface(t *testing.T) {
	srv := newServer(t)
	h := srv.Handler()

	status, out := post(t, h, httpapi.RouteJSONSchema, `{
		"input": {"name": "ann", "password": "x"},
		"schema": {"type": "object", "properties": {"name": {"type": "string"}}}
	}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"name": "ann"}, out.Result)

	status, out = post(t, h, httpapi.RouteInterface, `{
		"input": {"name": "ann", "tags": ["a", 1], "password": "x"},
		"source": "interface User { name: string; tags: string[] }",
		"name": "User"
	}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"name": "ann", "tags": []any{"a"}}, out.Result)
}

func TestReduce_Errors(t *testing.T) {
	srv := newServer(t)
	h := srv.Handler()

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed", httpapi.RouteReduce, `{"input":`, http.StatusBadRequest, goprune.CodeParseError},
		{"duplicate key", httpapi.RouteReduce, `{"input":{},"input":{},"map":{}}`, http.StatusBadRequest, goprune.CodeDuplicateKey},
		{"not an object", httpapi.RouteReduce, `[1]`, http.StatusBadRequest, goprune.CodeParseError},
		{"missing map", httpapi.RouteReduce, `{"input":{}}`, http.StatusBadRequest, goprune.CodeParseError},
		{"bad options", httpapi.RouteReduce, `{"input":{},"map":{},"options":{"bogus":true}}`, http.StatusBadRequest, goprune.CodeParseError},
		{"alien", httpapi.RouteReduce, `{"input":{"x":1},"map":{"a":"string"},"options":{"throwErrorOnAlien":true}}`, http.StatusUnprocessableEntity, goprune.CodeUnknownKey},
		{"null input", httpapi.RouteReduce, `{"map":{"a":"string"}}`, http.StatusUnprocessableEntity, goprune.CodeInvalidRoot},
		{"schema ref", httpapi.RouteJSONSchema, `{"input":{},"schema":{"$ref":"#/x"}}`, http.StatusUnprocessableEntity, goprune.CodeParseError},
		{"interface missing", httpapi.RouteInterface, `{"input":{},"source":"interface A { a: string }","name":"B"}`, http.StatusUnprocessableEntity, goprune.CodeParseError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, out := post(t, h, tc.path, tc.body)
			assert.Equal(t, tc.status, status)
			require.NotEmpty(t, out.Issues)
			assert.Equal(t, tc.code, out.Issues[0].Code)
		})
	}
}

func TestRegisteredMap(t *testing.T) {
	srv := newServer(t)
	srv.Register("user", goprune.Shape{"name": goprune.String}, goprune.Options{})
	h := srv.Handler()

	status, out := post(t, h, "/v1/maps/user", `{"name":"ann","admin":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"name": "ann"}, out.Result)
	require.Len(t, out.Report, 1)
	assert.Equal(t, "/admin", out.Report[0].Path)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/maps", nil))
	assert.JSONEq(t, `{"user":{"name":"string"}}`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(t)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	post(t, h, httpapi.RouteReduce, `{"input":{"a":1,"b":2},"map":{"a":"number"}}`)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `goprune_requests_total{route="/v1/reduce",status="200"} 1`)
	assert.Contains(t, body, `goprune_pruned_total{code="unknown_key"} 1`)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	srv := newServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	http.DefaultClient.CloseIdleConnections()
}
