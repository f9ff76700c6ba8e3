package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/source/gojson"
)

type reduceFlags struct {
	src mapSource

	keepKeys           bool
	throwOnAlien       bool
	allowNullish       bool
	allowNullishKeys   bool
	permitEmptyMap     bool
	permitUndefinedMap bool

	ndjson           bool
	report           bool
	pretty           bool
	maxDepth         int
	maxBytes         int64
	strictDuplicates bool
	driver           string
}

func newReduceCmd(a *app) *cobra.Command {
	var f reduceFlags
	cmd := &cobra.Command{
		Use:   "reduce [input.json]",
		Short: "Prune a JSON document (stdin when no file is given)",
		Example: `  goprune reduce --map user.yaml user.json
  goprune reduce --json-schema user.schema.json --keep-keys < user.json
  goprune reduce --interface types.ts --name User --ndjson events.ndjson`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReduce(cmd, args, &f)
		},
	}
	fs := cmd.Flags()
	f.src.register(fs)
	fs.BoolVar(&f.keepKeys, "keep-keys", false, "null mismatched values and fill in missing declared keys")
	fs.BoolVar(&f.throwOnAlien, "throw-on-alien", false, "fail on the first undeclared key")
	fs.BoolVar(&f.allowNullish, "allow-nullish", false, "pass a null document through")
	fs.BoolVar(&f.allowNullishKeys, "allow-nullish-keys", false, "keep members whose value is null")
	fs.BoolVar(&f.permitEmptyMap, "permit-empty-map", false, "return the input unchanged when the map declares nothing")
	fs.BoolVar(&f.permitUndefinedMap, "permit-undefined-map", false, "return the input unchanged when there is no map")
	fs.BoolVar(&f.ndjson, "ndjson", false, "input holds one document per line; lines are reduced concurrently")
	fs.BoolVar(&f.report, "report", false, `print {"result", "report"} instead of the bare result`)
	fs.BoolVar(&f.pretty, "pretty", false, "indent the output")
	fs.IntVar(&f.maxDepth, "max-depth", 0, "reject documents nested deeper than this (0 = unlimited)")
	fs.Int64Var(&f.maxBytes, "max-bytes", 0, "reject documents larger than this many bytes (0 = unlimited)")
	fs.BoolVar(&f.strictDuplicates, "strict-duplicates", false, "reject objects with repeated keys")
	fs.StringVar(&f.driver, "driver", "std", "JSON tokenizer: std or gojson")
	return cmd
}

func (a *app) options(cmd *cobra.Command, f *reduceFlags) goprune.Options {
	opt := a.cfg.Options
	fs := cmd.Flags()
	set := func(name string, dst *bool, v bool) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("keep-keys", &opt.KeepKeys, f.keepKeys)
	set("throw-on-alien", &opt.ThrowErrorOnAlien, f.throwOnAlien)
	set("allow-nullish", &opt.AllowNullish, f.allowNullish)
	set("allow-nullish-keys", &opt.AllowNullishKeys, f.allowNullishKeys)
	set("permit-empty-map", &opt.PermitEmptyMap, f.permitEmptyMap)
	set("permit-undefined-map", &opt.PermitUndefinedMap, f.permitUndefinedMap)
	return opt
}

func (a *app) decodeOpt(cmd *cobra.Command, f *reduceFlags) (goprune.DecodeOpt, error) {
	dopt := a.cfg.Decode
	fs := cmd.Flags()
	if fs.Changed("max-depth") {
		dopt.MaxDepth = f.maxDepth
	}
	if fs.Changed("max-bytes") {
		dopt.MaxBytes = f.maxBytes
	}
	if fs.Changed("strict-duplicates") {
		dopt.OnDuplicateKey = goprune.Ignore
		if f.strictDuplicates {
			dopt.OnDuplicateKey = goprune.Error
		}
	}
	switch f.driver {
	case "std", "":
		dopt.Driver = goprune.StdJSONDriver()
	case "gojson", "go-json":
		dopt.Driver = gojson.Driver()
	default:
		return dopt, fmt.Errorf("unknown driver %q (std, gojson)", f.driver)
	}
	return dopt, nil
}

func (a *app) runReduce(cmd *cobra.Command, args []string, f *reduceFlags) error {
	ctx := cmd.Context()
	if f.ndjson && f.report {
		return errors.New("--report cannot be combined with --ndjson")
	}
	m, err := f.src.load(ctx)
	if err != nil {
		return err
	}
	opt := a.options(cmd, f)
	dopt, err := a.decodeOpt(cmd, f)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()
		in = file
	}
	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()

	if f.ndjson {
		return a.reduceLines(cmd, in, out, m, opt, dopt, f.pretty)
	}

	result, report, err := goprune.ReduceReader(ctx, in, m, dopt, opt)
	a.logReport("document", report, err)
	if err != nil {
		return err
	}
	var v any = result
	if f.report {
		if report == nil {
			report = goprune.Issues{}
		}
		v = map[string]any{"result": result, "report": report}
	}
	return writeJSON(out, v, f.pretty)
}

// reduceLines decodes every non-blank line, then reduces all documents
// concurrently and writes the results in input order.
func (a *app) reduceLines(cmd *cobra.Command, in io.Reader, out io.Writer, m goprune.Descriptor, opt goprune.Options, dopt goprune.DecodeOpt, pretty bool) error {
	ctx := cmd.Context()
	sc := bufio.NewScanner(in)
	limit := 1 << 20
	if dopt.MaxBytes > 0 && int(dopt.MaxBytes)+1 > limit {
		limit = int(dopt.MaxBytes) + 1
	}
	sc.Buffer(make([]byte, 0, 64*1024), limit)

	var docs []any
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		if dopt.MaxBytes > 0 && int64(len(text)) > dopt.MaxBytes {
			return fmt.Errorf("line %d: %w", line, goprune.Issues{{Path: "/", Code: goprune.CodeTruncated, Message: "max bytes exceeded"}})
		}
		doc, warnings, err := goprune.DecodeJSONBytes(ctx, text, dopt)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if len(warnings) > 0 {
			a.log.Warn("duplicate keys", zap.Int("line", line), zap.Int("count", len(warnings)))
		}
		docs = append(docs, doc)
	}
	if err := sc.Err(); err != nil {
		return err
	}

	results, err := goprune.ReduceAll(ctx, docs, m, opt)
	if err != nil {
		return err
	}
	a.log.Debug("reduced batch", zap.Int("documents", len(results)))
	for _, r := range results {
		if err := writeJSON(out, r, pretty); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) logReport(what string, report goprune.Issues, err error) {
	if err != nil {
		a.log.Debug("reduction failed", zap.String("input", what), zap.String("code", goprune.ErrorCode(err)), zap.Error(err))
		return
	}
	a.log.Debug("reduced",
		zap.String("input", what),
		zap.Int(goprune.CodeUnknownKey, report.Count(goprune.CodeUnknownKey)),
		zap.Int(goprune.CodeInvalidType, report.Count(goprune.CodeInvalidType)),
		zap.Int(goprune.CodeNullValue, report.Count(goprune.CodeNullValue)),
		zap.Int(goprune.CodeMaterialized, report.Count(goprune.CodeMaterialized)),
	)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
