// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/brlglobal/brladmin/internal/auth"
	"github.com/brlglobal/brladmin/internal/middleware"
	"github.com/brlglobal/brladmin/internal/model"
)

// authBodyLimit は認証系リクエストボディの上限（バイト）。
const authBodyLimit = 64 << 10

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.UserView, error)
	Login(ctx context.Context, username, password string) (*model.Session, *model.UserView, error)
	Logout(ctx context.Context, sessionID string) error
}

// SessionCookies はセッションCookieの読み書きを行う。session.Cookiesが実装する。
type SessionCookies interface {
	Read(r *http.Request) (string, bool)
	Set(w http.ResponseWriter, id string)
	Clear(w http.ResponseWriter)
}

// AuthHandler はユーザー登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	cookies SessionCookies
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, cookies SessionCookies) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookies: cookies,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type registeredUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type registerResponse struct {
	Message string         `json:"message"`
	User    registeredUser `json:"user"`
}

type loggedInUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Message string       `json:"message"`
	User    loggedInUser `json:"user"`
}

// Register はユーザーを登録する。
// ログイン中であれば操作者として渡し、管理者ロールの付与判定に使う。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSONBody(w, r, &in); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	in.Caller, _ = middleware.UserFromContext(r.Context())

	user, err := h.service.Register(r.Context(), in)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Message: "User created successfully",
		User: registeredUser{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	})
}

// Login はユーザー名とパスワードで認証し、セッションCookieを発行する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	sess, user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	// ログイン前のセッションは引き継がない
	if oldID, ok := h.cookies.Read(r); ok && oldID != sess.ID {
		if err := h.service.Logout(r.Context(), oldID); err != nil {
			slog.WarnContext(r.Context(), "failed to discard previous session", slog.String("error", err.Error()))
		}
	}

	h.cookies.Set(w, sess.ID)
	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Logged in successfully",
		User: loggedInUser{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
	})
}

// Logout はセッションを破棄する。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.cookies.Read(r); ok {
		if err := h.service.Logout(r.Context(), id); err != nil {
			// ログアウト失敗してもCookieはクリアする
			slog.ErrorContext(r.Context(), "failed to logout", slog.String("error", err.Error()))
		}
	}

	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// Me は現在のログインユーザー情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, r, model.NewUnauthenticatedError())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// decodeJSONBody はリクエストボディをdstにデコードする。
// 失敗した場合はbodyフィールドの検証エラーを返す。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, authBodyLimit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewValidationError(model.FieldError{Field: "body", Reason: "is required"})
		}
		return model.NewValidationError(model.FieldError{Field: "body", Reason: "must be a valid JSON object"})
	}
	return nil
}

// writeJSON はvをJSONでレスポンスに書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
