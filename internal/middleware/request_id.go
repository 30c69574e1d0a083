package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// maxRequestIDLen を超えるクライアント指定のIDは採用しない。
const maxRequestIDLen = 64

// NewRequestIDMiddleware はリクエストIDを採番し、レスポンスヘッダーとコンテキストに設定する。
// クライアントがX-Request-IDを送った場合はその値を引き継ぐ。
func NewRequestIDMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			ctx := context.WithValue(r.Context(), metaContextKey, &requestMeta{requestID: id})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
