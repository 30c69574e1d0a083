// Package validation は入力検証とテキストのサニタイズを提供する。
// 検証ルールは構造体のvalidateタグで宣言し、エラーはJSONフィールド名で報告する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/brlglobal/brladmin/internal/model"
)

// Validator はgo-playground/validatorのラッパー。
// 生成後はスレッドセーフに使用できる。
type Validator struct {
	validate *validator.Validate
}

// New はJSONタグ名でフィールドを報告するValidatorを生成する。
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct はsの検証ルールを評価する。
// 失敗したフィールドをすべて含む*model.APIError（VALIDATION_ERROR）を返す。
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate: %w", err)
	}

	fields := make([]model.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, model.FieldError{
			Field:  fe.Field(),
			Reason: reason(fe),
		})
	}
	return model.NewValidationError(fields...)
}

// reason はタグごとの人が読める失敗理由を返す。
func reason(fe validator.FieldError) string {
	param := fe.Param()
	kind := fe.Kind()

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "numeric":
		return "must be numeric"
	case "alpha":
		return "must contain only letters"
	case "alphanum":
		return "must contain only letters and digits"
	case "uppercase":
		return "must be uppercase"
	case "base64":
		return "must be base64 encoded"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "len":
		return "must be exactly " + param + " " + unit(kind)
	case "min":
		if kind == reflect.String || kind == reflect.Slice {
			return "must contain at least " + param + " " + unit(kind)
		}
		return "must be at least " + param
	case "max":
		if kind == reflect.String || kind == reflect.Slice {
			return "must contain at most " + param + " " + unit(kind)
		}
		return "must be at most " + param
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be at least " + param
	case "gtefield":
		return "must not be before " + lowerFirst(param)
	}
	return "failed " + fe.Tag() + " check"
}

func unit(kind reflect.Kind) string {
	if kind == reflect.Slice {
		return "items"
	}
	return "characters"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
