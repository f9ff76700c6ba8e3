package json_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eng "github.com/reoring/goprune/internal/engine"
	jsonsrc "github.com/reoring/goprune/source/json"
)

func TestSource_Tokens(t *testing.T) {
	src := jsonsrc.NewBytes([]byte(`{"k":"v","a":[true,null,1.5],"o":{"k":"x"}}`))
	var kinds []eng.Kind
	for {
		tok, err := src.NextToken()
		if err != nil {
			break
		}
		kinds = append(kinds, tok.Kind)
		assert.GreaterOrEqual(t, tok.Offset, int64(0))
	}
	assert.Equal(t, []eng.Kind{
		eng.KindBeginObject,
		eng.KindKey, eng.KindString,
		eng.KindKey, eng.KindBeginArray, eng.KindBool, eng.KindNull, eng.KindNumber, eng.KindEndArray,
		eng.KindKey, eng.KindBeginObject, eng.KindKey, eng.KindString, eng.KindEndObject,
		eng.KindEndObject,
	}, kinds)
}

func TestSource_Decode(t *testing.T) {
	v, err := eng.Decode(jsonsrc.NewBytes([]byte(`{"a":[1,{"b":"c"}],"d":false}`)), eng.NumbersAsJSONNumber)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": []any{json.Number("1"), map[string]any{"b": "c"}},
		"d": false,
	}, v)
}
