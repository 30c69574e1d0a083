package validation

import (
	"html"
	"reflect"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// maxSanitizePasses はエスケープ済みタグが復元された場合に再度除去する回数の上限。
const maxSanitizePasses = 3

// Sanitizer は自由入力テキストからHTMLマークアップを除去する。
// bluemondayのStrictPolicyを使い、タグを取り除いたプレーンテキストを返す。
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer はSanitizerを生成する。
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text はタグを除去し、前後の空白を取り除いた文字列を返す。
// "<"を含まない入力はトリムのみ行う。
func (s *Sanitizer) Text(in string) string {
	out := in
	for i := 0; i < maxSanitizePasses && strings.ContainsRune(out, '<'); i++ {
		out = html.UnescapeString(s.policy.Sanitize(out))
	}
	return strings.TrimSpace(out)
}

var timeType = reflect.TypeOf(time.Time{})

// Struct は構造体ポインタの文字列フィールド（埋め込み構造体と文字列スライスを含む）を
// Textで正規化する。sanitize:"-" タグのフィールドとポインタ先の関連は対象外。
func (s *Sanitizer) Struct(ptr any) {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return
	}
	s.walk(v.Elem())
}

func (s *Sanitizer) walk(v reflect.Value) {
	if v.Kind() != reflect.Struct || v.Type().ConvertibleTo(timeType) {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("sanitize") == "-" {
			continue
		}

		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(s.Text(fv.String()))
		case reflect.Slice:
			if fv.Type().Elem().Kind() == reflect.String {
				for j := 0; j < fv.Len(); j++ {
					fv.Index(j).SetString(s.Text(fv.Index(j).String()))
				}
			}
		case reflect.Struct:
			s.walk(fv)
		}
	}
}
