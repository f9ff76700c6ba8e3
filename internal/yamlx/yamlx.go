// Package yamlx decodes YAML into the same plain shapes encoding/json
// produces, so YAML and JSON sources share one code path downstream.
package yamlx

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Unmarshal decodes a single YAML (or JSON) document into plain data.
func Unmarshal(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

// EachDocument decodes every document of a multi-document stream in order
// and calls fn with its normalized value. fn returning false stops the scan.
func EachDocument(data []byte, fn func(doc any) bool) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var node any
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !fn(Normalize(node)) {
			return nil
		}
	}
}

// Normalize converts YAML-decoded values (which may contain map[any]any)
// into JSON-like map[string]any recursively. Non-string keys are rendered
// with fmt.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = Normalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				ks = fmt.Sprint(k)
			}
			out[ks] = Normalize(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = Normalize(t[i])
		}
		return arr
	default:
		return v
	}
}

// Marshal renders plain data as YAML with two-space indentation.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
