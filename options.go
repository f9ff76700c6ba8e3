package goprune

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Options controls a single reduction. The zero value prunes silently: alien
// keys, nulls and mismatched values are all dropped.
type Options struct {
	// KeepKeys nulls mismatched values instead of deleting them and fills in
	// declared keys the input lacks.
	KeepKeys bool `mapstructure:"keepKeys" yaml:"keepKeys" json:"keepKeys"`
	// ThrowErrorOnAlien fails the reduction on the first undeclared key.
	ThrowErrorOnAlien bool `mapstructure:"throwErrorOnAlien" yaml:"throwErrorOnAlien" json:"throwErrorOnAlien"`
	// AllowNullish returns a null root as-is instead of failing.
	AllowNullish bool `mapstructure:"allowNullish" yaml:"allowNullish" json:"allowNullish"`
	// AllowNullishKeys keeps members whose value is null.
	AllowNullishKeys bool `mapstructure:"allowNullishKeys" yaml:"allowNullishKeys" json:"allowNullishKeys"`
	// PermitEmptyMap returns the input unchanged when the map declares nothing.
	PermitEmptyMap bool `mapstructure:"permitEmptyMap" yaml:"permitEmptyMap" json:"permitEmptyMap"`
	// PermitUndefinedMap returns the input unchanged when the map is nil.
	PermitUndefinedMap bool `mapstructure:"permitUndefinedMap" yaml:"permitUndefinedMap" json:"permitUndefinedMap"`
}

// DecodeOptions reads Options from a loosely typed record such as a decoded
// JSON body or a YAML config section. Unknown keys are rejected.
func DecodeOptions(raw map[string]any) (Options, error) {
	var opt Options
	if len(raw) == 0 {
		return opt, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opt,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return opt, err
	}
	if err := dec.Decode(raw); err != nil {
		return Options{}, fmt.Errorf("decode options: %w", err)
	}
	return opt, nil
}

func lastOptions(opts []Options) Options {
	if len(opts) == 0 {
		return Options{}
	}
	return opts[len(opts)-1]
}
