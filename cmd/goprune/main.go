// Command goprune prunes JSON documents down to a declared shape.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand.
type app struct {
	verbose    bool
	configPath string

	cfg fileConfig
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "goprune",
		Short: "Prune JSON documents down to a declared shape",
		Long: `goprune removes every key of a JSON document that a map does not declare,
drops values of the wrong type and can fill in declared keys the input lacks.

Maps can be written by hand (JSON or YAML map text) or imported from a JSON
Schema, TypeScript interfaces, an OpenAPI document or a Kubernetes CRD.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (options, decode, server, maps)")

	root.AddCommand(
		newReduceCmd(a),
		newMapCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup() error {
	config := zap.NewProductionConfig()
	if a.verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = log

	if a.configPath == "" {
		return nil
	}
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log.Debug("config loaded", zap.String("path", a.configPath))
	return nil
}
