package main

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/httpapi"
	"github.com/reoring/goprune/internal/yamlx"
)

// fileConfig is the layout of the --config file. Flags that are set
// explicitly override it.
type fileConfig struct {
	Options goprune.Options   `mapstructure:"options"`
	Decode  goprune.DecodeOpt `mapstructure:"decode"`
	Server  httpapi.Config    `mapstructure:"server"`
	// Maps registers map text files with the server, by route name.
	Maps map[string]string `mapstructure:"maps"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	raw, err := yamlx.Unmarshal(data)
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if raw == nil {
		return cfg, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			enumHook,
		),
	})
	if err != nil {
		return cfg, err
	}
	if err := dec.Decode(raw); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var (
	severityType   = reflect.TypeOf(goprune.Severity(0))
	numberModeType = reflect.TypeOf(goprune.NumberMode(0))
)

// enumHook lets the config name severities and number modes.
func enumHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.ToLower(data.(string))
	switch to {
	case severityType:
		switch s {
		case "ignore", "":
			return goprune.Ignore, nil
		case "warn":
			return goprune.Warn, nil
		case "error":
			return goprune.Error, nil
		}
		return nil, fmt.Errorf("unknown severity %q (ignore, warn, error)", s)
	case numberModeType:
		switch s {
		case "json", "jsonnumber", "":
			return goprune.NumberJSONNumber, nil
		case "float64", "float":
			return goprune.NumberFloat64, nil
		}
		return nil, fmt.Errorf("unknown number mode %q (json, float64)", s)
	}
	return data, nil
}
