package middleware

import (
	"context"
	"net/http"

	"github.com/brlglobal/brladmin/internal/model"
)

// --- モック定義 ---

type mockResolver struct {
	resolveFn func(ctx context.Context, sessionID string) (*model.UserView, error)
}

func (m *mockResolver) Resolve(ctx context.Context, sessionID string) (*model.UserView, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, sessionID)
	}
	return nil, nil
}

// plainCookies は署名なしでsession_id Cookieをそのまま返す。
type plainCookies struct{}

func (plainCookies) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie("session_id")
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

var _ SessionResolver = (*mockResolver)(nil)
var _ SessionCookieReader = plainCookies{}

func adminUser() *model.UserView {
	return &model.UserView{ID: 1, Username: "admin", Role: model.RoleAdmin, Active: true}
}

func customerUser() *model.UserView {
	return &model.UserView{ID: 2, Username: "carla", Role: model.RoleCustomer, Active: true}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
