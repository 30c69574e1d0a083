// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// FieldError は入力検証で失敗したフィールドと理由を表す。
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string       // エラーコード
	Message  string       // エラーメッセージ
	Category string       // カテゴリ: auth, validation, resource, system
	Action   string       // ユーザー向け対処方法
	Fields   []FieldError // 検証エラーの詳細（検証エラー時のみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Reason
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, strings.Join(parts, "; "))
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnknownRole        = "UNKNOWN_ROLE"
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(fields ...FieldError) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "Invalid input",
		Category: "validation",
		Action:   "Correct the listed fields and try again.",
		Fields:   fields,
	}
}

// NewConflictError は一意制約違反エラーを生成する。
func NewConflictError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeConflict,
		Message:  message,
		Category: "validation",
		Action:   "Use a different value for the unique field.",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// ユーザー不在とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid username or password",
		Category: "auth",
		Action:   "Check your username and password.",
	}
}

// NewUnknownRoleError は未定義ロール指定エラーを生成する。
func NewUnknownRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownRole,
		Message:  fmt.Sprintf("Unknown role: %s", role),
		Category: "validation",
		Action:   "Choose one of the configured roles.",
	}
}

// NewUnauthenticatedError は未認証エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "Not authenticated",
		Category: "auth",
		Action:   "Log in and try again.",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Forbidden",
		Category: "auth",
		Action:   "Ask an administrator for access.",
	}
}

// NewNotFoundError はリソース未検出エラーを生成する。
func NewNotFoundError(resource string, id any) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%s not found: %v", resource, id),
		Category: "resource",
		Action:   "Check the identifier and try again.",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Please wait and retry after the specified time.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
		Action:   "Please try again later.",
	}
}
