package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/jsonschema"
	"github.com/reoring/goprune/openapi"
	"github.com/reoring/goprune/tsiface"
)

// mapSource holds the flags that pick where a map comes from. Exactly one
// of the file flags must be set.
type mapSource struct {
	mapFile    string
	schemaFile string
	ifaceFile  string
	openapi    string
	crdFile    string

	name      string
	component string
	kind      string
	localRefs bool
}

func (s *mapSource) register(fs *pflag.FlagSet) {
	fs.StringVar(&s.mapFile, "map", "", "map text file (JSON or YAML)")
	fs.StringVar(&s.schemaFile, "json-schema", "", "JSON Schema file (JSON or YAML)")
	fs.StringVar(&s.ifaceFile, "interface", "", "TypeScript file with interface declarations")
	fs.StringVar(&s.openapi, "openapi", "", "OpenAPI 3 document (requires --component)")
	fs.StringVar(&s.crdFile, "crd", "", "YAML bundle with CustomResourceDefinitions (requires --kind)")
	fs.StringVar(&s.name, "name", "", "interface to use from --interface")
	fs.StringVar(&s.component, "component", "", "components.schemas entry to use from --openapi")
	fs.StringVar(&s.kind, "kind", "", "CRD kind to use from --crd")
	fs.BoolVar(&s.localRefs, "local-refs", false, "resolve local $defs/definitions references in --json-schema")
}

var errNoMapSource = errors.New("one of --map, --json-schema, --interface, --openapi or --crd is required")

func (s *mapSource) load(ctx context.Context) (goprune.Descriptor, error) {
	set := 0
	for _, f := range []string{s.mapFile, s.schemaFile, s.ifaceFile, s.openapi, s.crdFile} {
		if f != "" {
			set++
		}
	}
	switch {
	case set == 0:
		return nil, errNoMapSource
	case set > 1:
		return nil, fmt.Errorf("only one map source may be given: %w", errNoMapSource)
	}

	switch {
	case s.mapFile != "":
		data, err := os.ReadFile(s.mapFile)
		if err != nil {
			return nil, err
		}
		return goprune.ParseMap(data)
	case s.schemaFile != "":
		data, err := os.ReadFile(s.schemaFile)
		if err != nil {
			return nil, err
		}
		var opts []jsonschema.Option
		if s.localRefs {
			opts = append(opts, jsonschema.WithLocalRefs())
		}
		if strings.EqualFold(filepath.Ext(s.schemaFile), ".json") {
			return jsonschema.FromJSON(data, opts...)
		}
		return jsonschema.FromYAML(data, opts...)
	case s.ifaceFile != "":
		data, err := os.ReadFile(s.ifaceFile)
		if err != nil {
			return nil, err
		}
		return tsiface.ParseToMap(ctx, string(data), s.name)
	case s.openapi != "":
		if s.component == "" {
			return nil, errors.New("--openapi requires --component")
		}
		data, err := os.ReadFile(s.openapi)
		if err != nil {
			return nil, err
		}
		return openapi.FromDocument(ctx, data, s.component)
	default:
		if s.kind == "" {
			return nil, errors.New("--crd requires --kind")
		}
		data, err := os.ReadFile(s.crdFile)
		if err != nil {
			return nil, err
		}
		return openapi.FromCRD(data, s.kind)
	}
}
