package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message ("key",
// "expected", "got").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_root":  "input is null or undefined",
		"invalid_map":   "map is undefined",
		"unknown_key":   "key {key} is not declared",
		"invalid_type":  "expected {expected}, got {got}",
		"null_value":    "null value removed",
		"materialized":  "missing key {key} filled in",
		"duplicate_key": "duplicate key",
		"parse_error":   "parse error",
		"truncated":     "truncated",
	},
	"ja": {
		"invalid_root":  "入力が null または未定義です",
		"invalid_map":   "マップが未定義です",
		"unknown_key":   "キー {key} は宣言されていません",
		"invalid_type":  "型が不正です ({expected} を期待しましたが {got} でした)",
		"null_value":    "null 値を削除しました",
		"materialized":  "欠落したキー {key} を補完しました",
		"duplicate_key": "キーが重複しています",
		"parse_error":   "解析エラー",
		"truncated":     "打ち切られました",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
