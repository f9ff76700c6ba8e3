package goprune_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goprune "github.com/reoring/goprune"
)

func TestClone_IsDeep(t *testing.T) {
	in := obj{"a": arr{obj{"b": 1}}, "s": "x"}
	out := goprune.Clone(in).(obj)
	out["a"].(arr)[0].(obj)["b"] = 2
	out["s"] = "y"

	assert.Equal(t, 1, in["a"].(arr)[0].(obj)["b"])
	assert.Equal(t, "x", in["s"])
}

func TestClone_NormalizesTypedContainers(t *testing.T) {
	in := map[string][]int{"xs": {1, 2}}
	out := goprune.Clone(in)
	assert.Equal(t, obj{"xs": arr{1, 2}}, out)
}

func TestClone_DereferencesPointers(t *testing.T) {
	n := 3
	assert.Equal(t, 3, goprune.Clone(&n))
	assert.Nil(t, goprune.Clone((*int)(nil)))
	assert.Nil(t, goprune.Clone([]any(nil)))
}

func TestClone_SharesNonPlainValues(t *testing.T) {
	type handle struct{ id int }
	h := &handle{id: 1}
	out := goprune.Clone(obj{"h": h}).(obj)
	require.Contains(t, out, "h")
	assert.Same(t, h, out["h"])
}
