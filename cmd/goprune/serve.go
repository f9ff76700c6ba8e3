package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/httpapi"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr     string
		register map[string]string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reductions over HTTP",
		Example: `  goprune serve --addr :8080
  goprune serve --config goprune.yaml --register user=maps/user.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := a.newServer(register)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringToStringVar(&register, "register", nil, "expose a map file at POST /v1/maps/<name> (name=file, repeatable)")
	return cmd
}

// newServer builds the HTTP service from the config file and the
// --register flags; flags win over config entries with the same name.
func (a *app) newServer(register map[string]string) (*httpapi.Server, error) {
	cfg := a.cfg.Server
	def := httpapi.DefaultConfig()
	if cfg.Decode == (goprune.DecodeOpt{}) {
		cfg.Decode = def.Decode
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	srv := httpapi.New(cfg, a.log, reg)

	files := make(map[string]string, len(a.cfg.Maps)+len(register))
	for name, file := range a.cfg.Maps {
		files[name] = file
	}
	for name, file := range register {
		files[name] = file
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := os.ReadFile(files[name])
		if err != nil {
			return nil, fmt.Errorf("map %s: %w", name, err)
		}
		m, err := goprune.ParseMap(data)
		if err != nil {
			return nil, fmt.Errorf("map %s: %w", name, err)
		}
		srv.Register(name, m, a.cfg.Options)
		a.log.Info("map registered", zap.String("name", name), zap.String("file", files[name]), zap.Int("declared", goprune.Declared(m)))
	}
	return srv, nil
}
