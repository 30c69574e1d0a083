package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brlglobal/brladmin/internal/model"
)

// adminWriteFixture は管理APIと同じ順序でセッション読込 → ロール確認 → CSRF検証を組んだハンドラー。
type adminWriteFixture struct {
	handler http.Handler
	writes  int
}

func newAdminWriteFixture(cfg CSRFConfig) *adminWriteFixture {
	f := &adminWriteFixture{}
	resolver := &mockResolver{resolveFn: func(_ context.Context, id string) (*model.UserView, error) {
		if id == "admin-session" {
			return adminUser(), nil
		}
		return nil, nil
	}}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isSafeMethod(r.Method) {
			f.writes++
		}
		w.WriteHeader(http.StatusOK)
	})
	f.handler = NewLoadSessionMiddleware(resolver, plainCookies{})(
		RequireRole(model.RoleAdmin)(
			NewCSRFMiddleware(cfg)(final),
		),
	)
	return f
}

func (f *adminWriteFixture) serve(method, path string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{"name":"LATAM"}`))
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "admin-session"})
	for _, o := range opts {
		o(req)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func csrfCookie(token string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token}) }
}

func csrfHeader(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(csrfHeaderName, token) }
}

func TestCSRF_AdminWriteWithoutToken_ForbiddenJSON(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		opts   []func(*http.Request)
	}{
		{"create without any token", http.MethodPost, "/api/admin/airlines", nil},
		{"update with cookie only", http.MethodPut, "/api/admin/airlines/3", []func(*http.Request){csrfCookie("abc123")}},
		{"delete with header only", http.MethodDelete, "/api/admin/airlines/3", []func(*http.Request){csrfHeader("abc123")}},
		{"patch with empty cookie", http.MethodPatch, "/api/admin/airlines/3", []func(*http.Request){csrfCookie(""), csrfHeader("abc123")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAdminWriteFixture(CSRFConfig{})

			w := f.serve(tt.method, tt.path, tt.opts...)

			if w.Code != http.StatusForbidden {
				t.Fatalf("status = %d, want 403", w.Code)
			}
			if f.writes != 0 {
				t.Error("write must not reach the resource handler")
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("Content-Type = %q", ct)
			}
			var body ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != model.ErrCodeForbidden || body.Message != "CSRF token validation failed" {
				t.Errorf("body = %+v", body)
			}
			if body.Action == "" {
				t.Error("action should tell the client to reload the token")
			}
		})
	}
}

func TestCSRF_TokenMismatch(t *testing.T) {
	logs := captureDefaultLog(t)
	f := newAdminWriteFixture(CSRFConfig{})
	token := strings.Repeat("a", 64)
	forged := strings.Repeat("a", 63) + "b"

	w := f.serve(http.MethodPost, "/api/admin/airlines", csrfCookie(token), csrfHeader(forged))

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if f.writes != 0 {
		t.Error("write must not reach the resource handler")
	}
	if !strings.Contains(logs.String(), `"reason":"token mismatch"`) {
		t.Errorf("log should record the mismatch: %s", logs.String())
	}
}

func TestCSRF_TokenEndpointThenAdminWrite(t *testing.T) {
	cfg := CSRFConfig{CookieSecure: true, CookieDomain: "admin.brlglobal.com"}
	tokenHandler := NewCSRFTokenHandler(cfg)

	// ログイン済みのブラウザがトークンを取得する
	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "admin-session"})
	w := httptest.NewRecorder()
	tokenHandler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("token status = %d, want 200", w.Code)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if len(payload.Token) != 64 {
		t.Fatalf("token = %q, want 64 hex chars", payload.Token)
	}

	var issued *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookieName {
			issued = c
		}
	}
	if issued == nil || issued.Value != payload.Token {
		t.Fatalf("csrf cookie = %+v, want value %q", issued, payload.Token)
	}
	if !issued.Secure || issued.HttpOnly || issued.Domain != "admin.brlglobal.com" {
		t.Errorf("cookie attributes = %+v", issued)
	}

	// 2回目の取得は同じトークンを返し、Cookieを発行し直さない
	again := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	again.AddCookie(issued)
	w2 := httptest.NewRecorder()
	tokenHandler.ServeHTTP(w2, again)
	if !strings.Contains(w2.Body.String(), payload.Token) {
		t.Errorf("second token response = %s", w2.Body.String())
	}
	if len(w2.Result().Cookies()) != 0 {
		t.Error("existing token cookie should not be replaced")
	}

	// 取得したトークンでセッション付きの書き込みが通る
	f := newAdminWriteFixture(cfg)
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		w := f.serve(method, "/api/admin/airlines/3", csrfCookie(payload.Token), csrfHeader(payload.Token))
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", method, w.Code)
		}
	}
	if f.writes != 3 {
		t.Errorf("writes = %d, want 3", f.writes)
	}
}

func TestCSRF_AdminReadIssuesCookieOnce(t *testing.T) {
	f := newAdminWriteFixture(CSRFConfig{})

	w := f.serve(http.MethodGet, "/api/admin/airlines")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != csrfCookieName || cookies[0].Value == "" {
		t.Fatalf("cookies = %+v, want one csrf cookie", cookies)
	}

	w = f.serve(http.MethodGet, "/api/admin/airlines", csrfCookie(cookies[0].Value))
	if len(w.Result().Cookies()) != 0 {
		t.Error("csrf cookie should not be reissued when present")
	}
}

func TestCSRF_RoleCheckRunsBeforeToken(t *testing.T) {
	f := newAdminWriteFixture(CSRFConfig{})

	w := f.serve(http.MethodPost, "/api/admin/airlines", func(r *http.Request) {
		r.Header.Del("Cookie")
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 before CSRF is considered", w.Code)
	}
}
