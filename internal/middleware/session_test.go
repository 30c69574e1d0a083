package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brlglobal/brladmin/internal/model"
	"github.com/brlglobal/brladmin/internal/session"
)

func TestLoadSession_ValidSession_InjectsUser(t *testing.T) {
	resolver := &mockResolver{
		resolveFn: func(_ context.Context, id string) (*model.UserView, error) {
			if id == "valid-session-id" {
				return adminUser(), nil
			}
			return nil, nil
		},
	}

	var captured *model.UserView
	handler := NewLoadSessionMiddleware(resolver, plainCookies{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session-id"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if captured == nil || captured.Username != "admin" {
		t.Errorf("captured user = %+v, want admin", captured)
	}
}

func TestLoadSession_NoCookie_PassesThroughAnonymous(t *testing.T) {
	called := false
	resolver := &mockResolver{
		resolveFn: func(_ context.Context, _ string) (*model.UserView, error) {
			t.Fatal("resolver should not be called without a cookie")
			return nil, nil
		},
	}
	handler := NewLoadSessionMiddleware(resolver, plainCookies{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := UserFromContext(r.Context()); ok {
			t.Error("no user expected")
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("next handler should be called")
	}
}

func TestLoadSession_UnknownSession_Anonymous(t *testing.T) {
	handler := NewLoadSessionMiddleware(&mockResolver{}, plainCookies{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); ok {
			t.Error("no user expected")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "stale"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestLoadSession_ResolverError_Returns500(t *testing.T) {
	resolver := &mockResolver{
		resolveFn: func(_ context.Context, _ string) (*model.UserView, error) {
			return nil, errors.New("redis: connection refused")
		},
	}
	handler := NewLoadSessionMiddleware(resolver, plainCookies{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "abc"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestLoadSession_TamperedSignedCookie_NotResolved(t *testing.T) {
	cookies := session.NewCookies(session.CookieConfig{Secret: []byte("0123456789abcdef0123")})
	resolver := &mockResolver{
		resolveFn: func(_ context.Context, _ string) (*model.UserView, error) {
			t.Fatal("resolver must not see a forged id")
			return nil, nil
		},
	}
	handler := NewLoadSessionMiddleware(resolver, cookies)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "forged.c2lnbmF0dXJl"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestContextWithUser_RoundTrip(t *testing.T) {
	ctx := ContextWithUser(context.Background(), customerUser())
	u, ok := UserFromContext(ctx)
	if !ok || u.ID != 2 {
		t.Errorf("UserFromContext = %+v, %v", u, ok)
	}
	if _, ok := UserFromContext(context.Background()); ok {
		t.Error("empty context should have no user")
	}
}
