package gojson_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/source/gojson"
)

func TestDriver_MatchesStd(t *testing.T) {
	docs := []string{
		`{"a":1,"b":[true,null,"x"],"c":{"d":{"e":2.5}}}`,
		`[{"k":"v"},[],{}]`,
		`"scalar"`,
	}
	for _, doc := range docs {
		std, _, err := goprune.DecodeJSONBytes(context.Background(), []byte(doc), goprune.DecodeOpt{})
		require.NoError(t, err)
		gj, _, err := goprune.DecodeJSONBytes(context.Background(), []byte(doc), goprune.DecodeOpt{Driver: gojson.Driver()})
		require.NoError(t, err)
		assert.Equal(t, std, gj, doc)
	}
}

func TestDriver_DuplicateKeysEnforced(t *testing.T) {
	dopt := goprune.StrictDecodeOpt()
	dopt.Driver = gojson.Driver()
	_, _, err := goprune.ReduceJSON(context.Background(), []byte(`{"a":1,"a":2}`), goprune.Shape{"a": goprune.Number}, dopt)
	iss, ok := goprune.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, goprune.CodeDuplicateKey, iss[0].Code)
}

func TestInstall(t *testing.T) {
	gojson.Install()
	t.Cleanup(goprune.UseDefaultJSONDriver)
	assert.Equal(t, "go-json", goprune.CurrentJSONDriver().Name())
}
