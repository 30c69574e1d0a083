package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/brlglobal/brladmin/internal/model"
)

// SessionResolver はセッションIDからユーザーを解決する。auth.Serviceが実装する。
// 解決できない場合はnil, nilを返す。
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*model.UserView, error)
}

// SessionCookieReader は署名付きセッションCookieを検証してIDを取り出す。
type SessionCookieReader interface {
	Read(r *http.Request) (string, bool)
}

// NewLoadSessionMiddleware はCookieからセッションを読み取り、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証でもリクエストは拒否しない。拒否はRequireAuthenticatedで行う。
func NewLoadSessionMiddleware(resolver SessionResolver, cookies SessionCookieReader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. 署名を検証してセッションIDを取得
			sessionID, ok := cookies.Read(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			// 2. セッションからユーザーを解決
			user, err := resolver.Resolve(r.Context(), sessionID)
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to resolve session",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			// 3. 認証済みユーザーをコンテキストに注入
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}
