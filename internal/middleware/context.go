// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"

	"github.com/brlglobal/brladmin/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userContextKey = contextKey("user")
	metaContextKey = contextKey("request_meta")
)

// requestMeta はリクエスト単位の情報。
// 外側のミドルウェア（ログ）が内側で解決したユーザーIDを参照できるようポインタで共有する。
type requestMeta struct {
	requestID string
	userID    int64
}

func metaFromContext(ctx context.Context) *requestMeta {
	m, _ := ctx.Value(metaContextKey).(*requestMeta)
	return m
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// LoadSessionミドルウェアで解決できた場合のみ値を持つ。
func UserFromContext(ctx context.Context) (*model.UserView, bool) {
	u, ok := ctx.Value(userContextKey).(*model.UserView)
	return u, ok && u != nil
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.UserView) context.Context {
	if m := metaFromContext(ctx); m != nil && user != nil {
		m.userID = user.ID
	}
	return context.WithValue(ctx, userContextKey, user)
}

// RequestIDFromContext はリクエストIDを返す。RequestIDミドルウェアを通過していなければ空文字。
func RequestIDFromContext(ctx context.Context) string {
	if m := metaFromContext(ctx); m != nil {
		return m.requestID
	}
	return ""
}
