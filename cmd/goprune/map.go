package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/jsonschema"
)

func newMapCmd(a *app) *cobra.Command {
	var (
		src    mapSource
		format string
	)
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Print the map an importer produces",
		Long: `Loads a map from any supported source and prints it as map text (json or
yaml) or as a JSON Schema (jsonschema).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := src.load(cmd.Context())
			if err != nil {
				return err
			}
			var out []byte
			switch format {
			case "jsonschema":
				out, err = json.MarshalIndent(jsonschema.Export(m), "", "  ")
			case "json", "yaml", "yml":
				out, err = goprune.MarshalMap(m, format)
			default:
				return fmt.Errorf("unknown format %q (json, yaml, jsonschema)", format)
			}
			if err != nil {
				return err
			}
			if n := len(out); n > 0 && out[n-1] != '\n' {
				out = append(out, '\n')
			}
			a.log.Debug("map loaded", zap.Int("declared", goprune.Declared(m)))
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	src.register(cmd.Flags())
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml or jsonschema")
	return cmd
}
