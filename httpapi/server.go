// Package httpapi serves reductions over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/middleware"
)

// Route names used in logs and metric labels.
const (
	RouteReduce     = "/v1/reduce"
	RouteJSONSchema = "/v1/reduce/json-schema"
	RouteInterface  = "/v1/reduce/interface"
)

// Config tunes the service.
type Config struct {
	// Decode bounds every request body.
	Decode goprune.DecodeOpt `mapstructure:"decode" yaml:"decode"`
	// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// DefaultConfig mirrors middleware.DefaultDecodeOpt with a 10s shutdown.
func DefaultConfig() Config {
	return Config{Decode: middleware.DefaultDecodeOpt(), ShutdownTimeout: 10 * time.Second}
}

type namedMap struct {
	m    goprune.Descriptor
	opts goprune.Options
}

// Server holds the routes and their dependencies.
type Server struct {
	cfg     Config
	log     *zap.Logger
	reg     *prometheus.Registry
	metrics *Metrics
	maps    map[string]namedMap
}

// New builds a Server. A nil logger disables logging; a nil registry gets a
// private one.
func New(cfg Config, log *zap.Logger, reg *prometheus.Registry) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Server{
		cfg:     cfg,
		log:     log,
		reg:     reg,
		metrics: NewMetrics(reg),
		maps:    map[string]namedMap{},
	}
}

// Register exposes m at POST /v1/maps/{name}: the request body is pruned
// with opts and echoed back. Register before calling Handler.
func (s *Server) Register(name string, m goprune.Descriptor, opts goprune.Options) {
	s.maps[name] = namedMap{m: m, opts: opts}
}

// Handler returns the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	r.Post(RouteReduce, s.handle(RouteReduce, s.mapFromEnvelope))
	r.Post(RouteJSONSchema, s.handle(RouteJSONSchema, s.mapFromSchema))
	r.Post(RouteInterface, s.handle(RouteInterface, s.mapFromInterface))

	r.Get("/v1/maps", s.listMaps)
	names := make([]string, 0, len(s.maps))
	for name := range s.maps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		nm := s.maps[name]
		r.With(middleware.PruneJSONBody(nm.m, s.cfg.Decode, nm.opts)).
			Post("/v1/maps/"+name, s.echoPruned(name))
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) listMaps(w http.ResponseWriter, _ *http.Request) {
	out := make(map[string]any, len(s.maps))
	for name, nm := range s.maps {
		out[name] = goprune.FormatMap(nm.m)
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) echoPruned(name string) http.HandlerFunc {
	route := "/v1/maps/" + name
	return func(w http.ResponseWriter, r *http.Request) {
		res, _ := middleware.ResultFromContext(r.Context())
		s.finish(w, r, route, http.StatusOK, map[string]any{"result": res.Value, "report": nonNil(res.Report)}, res.Report, time.Now())
	}
}
