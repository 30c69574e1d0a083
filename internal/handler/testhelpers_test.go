package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/brlglobal/brladmin/internal/auth"
	"github.com/brlglobal/brladmin/internal/middleware"
	"github.com/brlglobal/brladmin/internal/model"
	"github.com/brlglobal/brladmin/internal/session"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn func(ctx context.Context, in auth.RegisterInput) (*model.UserView, error)
	loginFn    func(ctx context.Context, username, password string) (*model.Session, *model.UserView, error)
	logoutFn   func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.UserView, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*model.Session, *model.UserView, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return nil, nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

type mockEndpoint struct {
	name     string
	label    string
	listFn   func(ctx context.Context) (any, error)
	createFn func(ctx context.Context, body []byte) (any, error)
	updateFn func(ctx context.Context, id string, body []byte) (any, error)
	deleteFn func(ctx context.Context, id string) (any, error)
}

func (m *mockEndpoint) Name() string  { return m.name }
func (m *mockEndpoint) Label() string { return m.label }

func (m *mockEndpoint) ListRows(ctx context.Context) (any, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.Airline{}, nil
}

func (m *mockEndpoint) CreateRow(ctx context.Context, body []byte) (any, error) {
	if m.createFn != nil {
		return m.createFn(ctx, body)
	}
	return &model.Airline{}, nil
}

func (m *mockEndpoint) UpdateRow(ctx context.Context, id string, body []byte) (any, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, body)
	}
	return &model.Airline{}, nil
}

func (m *mockEndpoint) DeleteRow(ctx context.Context, id string) (any, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return &model.Airline{}, nil
}

type writeCall struct{ resource, op string }

type fakeRecorder struct {
	mu     sync.Mutex
	writes []writeCall
}

func (f *fakeRecorder) RecordEntityWrite(resource, op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, writeCall{resource, op})
}

func (f *fakeRecorder) RecordHTTPRequest(string, string, int, time.Duration) {}
func (f *fakeRecorder) RecordAuthEvent(string, string)                      {}
func (f *fakeRecorder) RecordSessionsPurged(int)                             {}

func (f *fakeRecorder) calls() []writeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]writeCall(nil), f.writes...)
}

// --- ヘルパー ---

func testCookies() *session.Cookies {
	return session.NewCookies(session.CookieConfig{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		MaxAge: 3600,
	})
}

func withUser(r *http.Request, user *model.UserView) *http.Request {
	return r.WithContext(middleware.ContextWithUser(r.Context(), user))
}

func adminView() *model.UserView {
	return &model.UserView{ID: 1, Username: "admin", Email: "admin@brlglobal.com", Role: model.RoleAdmin, Active: true}
}

func customerView() *model.UserView {
	return &model.UserView{ID: 2, Username: "carla", Email: "carla@example.com", Role: model.RoleCustomer, Active: true}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
