// Package gojson provides a goprune.JSONDriver backed by goccy/go-json.
package gojson

import (
	"bytes"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	goprune "github.com/reoring/goprune"
	eng "github.com/reoring/goprune/internal/engine"
)

// Driver returns a goprune.JSONDriver backed by goccy/go-json.
func Driver() goprune.JSONDriver { return driverGoJSON{} }

// Install makes go-json the global driver.
func Install() { goprune.SetJSONDriver(Driver()) }

type driverGoJSON struct{}

func (driverGoJSON) NewReader(r io.Reader) goprune.Source { return goprune.SourceFromEngine(NewReader(r)) }
func (driverGoJSON) NewBytes(b []byte) goprune.Source     { return goprune.SourceFromEngine(NewBytes(b)) }
func (driverGoJSON) Name() string                         { return "go-json" }

type source struct {
	dec  *j.Decoder
	keys eng.KeyTracker
}

// NewReader wraps an io.Reader into an engine.TokenSource for JSON using go-json.
func NewReader(r io.Reader) eng.TokenSource {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &source{dec: dec}
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON using go-json.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *source) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return eng.Token{}, err
	}
	out := eng.Token{Offset: -1}
	switch v := tok.(type) {
	case j.Delim:
		out.Kind = s.keys.Delim(rune(v))
	case string:
		out.Kind = s.keys.Text()
		out.String = v
	case bool:
		s.keys.Value()
		out.Kind, out.Bool = eng.KindBool, v
	case j.Number:
		s.keys.Value()
		out.Kind, out.Number = eng.KindNumber, string(v)
	case float64:
		s.keys.Value()
		out.Kind, out.Number = eng.KindNumber, strconv.FormatFloat(v, 'g', -1, 64)
	default:
		s.keys.Value()
		out.Kind = eng.KindNull
	}
	return out, nil
}

// Location is unknown: go-json's Decoder does not expose an input offset.
func (s *source) Location() int64 { return -1 }
