// Package goprune prunes arbitrary nested data down to an allow-listed shape.
//
// A map descriptor (Shape, List, or one of the primitive tags String, Number,
// Boolean, Object, Array and Null) declares which members may survive and
// which kind each must have. Reduce deep-copies the input and, member by
// member, drops what the map does not declare, drops nulls, and drops or
// nulls values of the wrong kind. With KeepKeys set, missing declared members
// are filled in afterwards so every declared key is present.
//
// Design policy:
//   - Keep only public APIs in the root package; put details under internal/.
//   - Importers that build descriptors from other schema languages live in
//     jsonschema/, tsiface/ and openapi/; transports in httpapi/ and
//     middleware/; the CLI under cmd/goprune.
//   - Nothing is mutated in place: not the input, not the descriptor.
//
// Typical usage:
//
//	m := goprune.Shape{
//		"name": goprune.String,
//		"tags": goprune.ArrayOf(goprune.String),
//	}
//	out, err := goprune.Reduce(input, m, goprune.Options{KeepKeys: true})
//	out, report, err := goprune.ReduceJSON(ctx, body, m, goprune.StrictDecodeOpt())
package goprune
