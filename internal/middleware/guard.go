package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/brlglobal/brladmin/internal/authz"
	"github.com/brlglobal/brladmin/internal/model"
)

// Authorizer はロールとアクションから可否を判定する。authz.Policyが実装する。
type Authorizer interface {
	Authorize(role string, action authz.Action) bool
}

// RequireAuthenticated はユーザーがコンテキストにない場合に401を返す。
// NewLoadSessionMiddlewareの後に配置する。
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole はユーザーのロールがallowedに含まれない場合に403を返す。
// ユーザーがいない場合は401を返す。
func RequireRole(allowed ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}
			if !slices.Contains(allowed, user.Role) {
				logForbidden(r, user, "role")
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAction はポリシーがactionFor(r)を許可しない場合に403を返す。
func RequireAction(policy Authorizer, actionFor func(r *http.Request) authz.Action) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}
			action := actionFor(r)
			if !policy.Authorize(user.Role, action) {
				logForbidden(r, user, action.String())
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminAction はHTTPメソッドから管理APIのアクションを決める。RequireActionに渡す。
func AdminAction(r *http.Request) authz.Action {
	return authz.ActionForMethod(r.Method)
}

func logForbidden(r *http.Request, user *model.UserView, check string) {
	slog.WarnContext(r.Context(), "access denied",
		slog.Int64("user_id", user.ID),
		slog.String("role", user.Role),
		slog.String("check", check),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}
