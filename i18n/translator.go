package i18n

import "strings"

// Translator retrieves localized messages for error kinds.
// data provides optional values substituted into the message template
// (for example "type", "got" or "id").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	var tmpl string
	switch t.lang {
	case "ja":
		switch code {
		case "malformed_input":
			tmpl = "JSON の形式が不正です"
		case "unexpected_value":
			tmpl = "\"{type}\" に対して想定外の \"{got}\" 値です"
		case "unknown_transformer":
			tmpl = "未登録の値変換 \"{id}\" です"
		case "transform":
			tmpl = "値変換 \"{id}\" に失敗しました"
		case "compilation":
			tmpl = "\"{type}\" のデコーダを生成できません"
		case "cache":
			tmpl = "キャッシュ操作に失敗しました"
		}
	default: // "en"
		switch code {
		case "malformed_input":
			tmpl = "malformed JSON input"
		case "unexpected_value":
			tmpl = "unexpected \"{got}\" value for \"{type}\""
		case "unknown_transformer":
			tmpl = "unknown value transformer \"{id}\""
		case "transform":
			tmpl = "value transformer \"{id}\" failed"
		case "compilation":
			tmpl = "cannot compile decoder for \"{type}\""
		case "cache":
			tmpl = "provider cache failure"
		}
	}
	if tmpl == "" {
		return code
	}
	return expand(tmpl, data)
}

func expand(tmpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
