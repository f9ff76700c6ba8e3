package goprune

// NumberMode dictates how numbers in decoded JSON are represented.
type NumberMode int

const (
	NumberJSONNumber NumberMode = iota // Preserve json.Number.
	NumberFloat64                      // Fast mode (with potential precision loss).
)

// Severity expresses the severity level for decode issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// DecodeOpt bundles the limits applied while decoding untrusted JSON before
// it is reduced.
type DecodeOpt struct {
	// OnDuplicateKey decides whether a repeated object key is ignored,
	// reported, or rejected.
	OnDuplicateKey Severity   `mapstructure:"onDuplicateKey" yaml:"onDuplicateKey"`
	MaxDepth       int        `mapstructure:"maxDepth" yaml:"maxDepth"`
	MaxBytes       int64      `mapstructure:"maxBytes" yaml:"maxBytes"`
	NumberMode     NumberMode `mapstructure:"numberMode" yaml:"numberMode"`
	// Driver overrides the global JSON driver for this call.
	Driver JSONDriver `mapstructure:"-" yaml:"-"`
}

// StrictDecodeOpt rejects duplicate keys; suitable for HTTP boundaries.
func StrictDecodeOpt() DecodeOpt { return DecodeOpt{OnDuplicateKey: Error} }
