package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	msg := T("invalid_type", map[string]string{"expected": "string", "got": "number"})
	assert.Equal(t, "expected string, got number", msg)

	SetLanguage("ja")
	t.Cleanup(func() { SetLanguage("en") })
	assert.Contains(t, T("invalid_type", nil), "型が不正です")
}

func TestTranslator_UnknownCodeFallsBack(t *testing.T) {
	assert.Equal(t, "no_such_code", T("no_such_code", nil))
}

func TestTranslator_PlaceholderWithoutData(t *testing.T) {
	assert.Equal(t, "key {key} is not declared", T("unknown_key", nil))
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator_Custom(t *testing.T) {
	SetTranslator(upper{})
	t.Cleanup(func() { SetTranslator(nil) })
	assert.Equal(t, "X:null_value", T("null_value", nil))
}
